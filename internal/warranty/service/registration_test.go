package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	identity "warranty/internal/identity/models"
	"warranty/internal/warranty/models"
	id "warranty/pkg/domain"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
)

func (s *ServiceSuite) TestRegistrationValidate() {
	s.createSerial("SN-V1")

	s.Run("available serial is eligible", func() {
		got, err := s.registration.Validate(s.ctx, " SN-V1 ")
		s.Require().NoError(err)
		s.True(got.Eligible)
		s.Equal("SN-V1", got.Record.SerialNumber)
	})

	s.Run("registered serial is not eligible", func() {
		s.registerSerial("SN-V1", s.alice)
		got, err := s.registration.Validate(s.ctx, "SN-V1")
		s.Require().NoError(err)
		s.False(got.Eligible)
		s.Equal("already registered", got.Reason)
	})

	s.Run("non-owner sees only the public view", func() {
		got, err := s.registration.Validate(s.as(s.bob), "SN-V1")
		s.Require().NoError(err)
		s.Equal("SN-V1", got.Record.SerialNumber)
		s.Equal(models.StatusRegistered, got.Record.Status)
		s.Nil(got.Record.OwnerID)
		s.Empty(got.Record.CustomerName)
		s.Empty(got.Record.CustomerEmail)
		s.Empty(got.Record.CustomerPhone)
		s.Empty(got.Record.PurchaseReceiptURL)
	})

	s.Run("owner and admin see the details", func() {
		for _, caller := range []identity.Caller{s.alice, s.admin} {
			got, err := s.registration.Validate(s.as(caller), "SN-V1")
			s.Require().NoError(err)
			s.Require().NotNil(got.Record.OwnerID)
			s.Equal(s.alice.UserID, *got.Record.OwnerID)
			s.Equal("a@x.com", got.Record.CustomerEmail)
		}
	})

	s.Run("unknown code is not found", func() {
		_, err := s.registration.Validate(s.ctx, "SN-NOPE")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("validate never mutates", func() {
		rec := s.createSerial("SN-V2")
		_, err := s.registration.Validate(s.ctx, "SN-V2")
		s.Require().NoError(err)
		got, _ := s.registry.GetByID(s.ctx, rec.ID)
		s.Equal(models.StatusAvailable, got.Status)
		s.Equal(rec.UpdatedAt, got.UpdatedAt)
	})
}

func (s *ServiceSuite) TestRegistrationRegister() {
	s.Run("stamps owner, customer, and registration date", func() {
		s.createSerial("SN-R1")
		purchased := s.now.AddDate(0, -1, 0)
		fields := models.RegistrationFields{
			CustomerName:   " Alice ",
			CustomerEmail:  "a@x.com",
			CustomerPhone:  "9876543210",
			PurchaseSource: "Amazon",
			PurchaseDate:   &purchased,
		}

		rec, err := s.registration.Register(s.as(s.alice), "SN-R1", s.alice.UserID, fields)
		s.Require().NoError(err)
		s.Equal(models.StatusRegistered, rec.Status)
		s.True(rec.IsOwnedBy(s.alice.UserID))
		s.Equal("Alice", rec.CustomerName)
		s.Equal("a@x.com", rec.CustomerEmail)
		s.Equal("9876543210", rec.CustomerPhone)
		s.Equal("Amazon", rec.PurchaseSource)
		s.Require().NotNil(rec.RegistrationDate)
		s.True(rec.RegistrationDate.Equal(s.now))
		s.NoError(rec.CheckInvariants())
		s.Len(s.events.ListByAction(s.ctx, audit.EventWarrantyRegistered), 1)
	})

	s.Run("second caller gets AlreadyRegistered and the winner is untouched", func() {
		_, err := s.registration.Register(s.as(s.bob), "SN-R1", s.bob.UserID, s.registrationFields("Bob", "b@x.com"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyRegistered))
		de, _ := dErrors.As(err)
		s.Equal("registered", de.Details["status"])

		rec, _ := s.registry.GetByCode(s.ctx, "SN-R1")
		s.True(rec.IsOwnedBy(s.alice.UserID))
		s.Equal("Alice", rec.CustomerName)
		s.Equal("a@x.com", rec.CustomerEmail)
	})

	s.Run("invalid email is rejected before any write", func() {
		rec := s.createSerial("SN-R2")
		_, err := s.registration.Register(s.as(s.alice), "SN-R2", s.alice.UserID, s.registrationFields("Alice", "not-an-email"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		de, _ := dErrors.As(err)
		s.Equal("customer_email", de.Field)

		got, _ := s.registry.GetByID(s.ctx, rec.ID)
		s.Equal(models.StatusAvailable, got.Status)
	})

	s.Run("unknown code is not found", func() {
		_, err := s.registration.Register(s.as(s.alice), "SN-MISSING", s.alice.UserID, s.registrationFields("Alice", "a@x.com"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.registration.Register(s.ctx, "SN-R2", id.UserID{}, s.registrationFields("Alice", "a@x.com"))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestRegistrationReceipt() {
	receipt := &models.Upload{Filename: "receipt.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}

	s.Run("receipt is stored and its URL recorded", func() {
		s.createSerial("SN-RC1")
		fields := s.registrationFields("Alice", "a@x.com")
		fields.Receipt = receipt

		rec, err := s.registration.Register(s.as(s.alice), "SN-RC1", s.alice.UserID, fields)
		s.Require().NoError(err)
		s.Contains(rec.PurchaseReceiptURL, "receipts/"+rec.ID.String()+"/")
		s.Equal(1, s.objects.Len())
	})

	s.Run("upload failure surfaces UploadFailed and leaves the serial available", func() {
		rec := s.createSerial("SN-RC2")
		s.objects.FailWith(errors.New("bucket unavailable"))
		defer s.objects.FailWith(nil)

		fields := s.registrationFields("Alice", "a@x.com")
		fields.Receipt = receipt
		_, err := s.registration.Register(s.as(s.alice), "SN-RC2", s.alice.UserID, fields)
		s.True(dErrors.HasCode(err, dErrors.CodeUploadFailed))

		got, _ := s.registry.GetByID(s.ctx, rec.ID)
		s.Equal(models.StatusAvailable, got.Status)
		s.Nil(got.OwnerID)
	})

	s.Run("receipt type is checked", func() {
		s.createSerial("SN-RC3")
		fields := s.registrationFields("Alice", "a@x.com")
		fields.Receipt = &models.Upload{Filename: "r.gif", ContentType: "image/gif", Data: []byte("GIF89a")}
		_, err := s.registration.Register(s.as(s.alice), "SN-RC3", s.alice.UserID, fields)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// Many callers race to register one serial: exactly one wins, the rest see
// AlreadyRegistered, and the stored customer fields belong to the winner.
func (s *ServiceSuite) TestRegistrationConcurrentCallers() {
	rec := s.createSerial("SN-RACE")

	const callers = 32
	var (
		wg        sync.WaitGroup
		winners   atomic.Int32
		conflicts atomic.Int32
		winnerID  atomic.Value
		start     = make(chan struct{})
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caller := identity.Caller{UserID: id.UserID(uuid.New()), Role: identity.RoleEndUser}
			fields := s.registrationFields(caller.UserID.String(), "caller@x.com")
			<-start
			_, err := s.registration.Register(s.as(caller), "SN-RACE", caller.UserID, fields)
			switch {
			case err == nil:
				winners.Add(1)
				winnerID.Store(caller.UserID)
			case dErrors.HasCode(err, dErrors.CodeAlreadyRegistered):
				conflicts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), winners.Load())
	s.Equal(int32(callers-1), conflicts.Load())

	got, err := s.registry.GetByID(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRegistered, got.Status)
	winner := winnerID.Load().(id.UserID)
	s.True(got.IsOwnedBy(winner))
	s.Equal(winner.String(), got.CustomerName)
	s.NoError(got.CheckInvariants())
}

func (s *ServiceSuite) TestRegistrationRespectsCancelledContext() {
	s.createSerial("SN-CTX")
	ctx, cancel := context.WithCancel(s.as(s.alice))
	cancel()
	_, err := s.registration.Register(ctx, "SN-CTX", s.alice.UserID, s.registrationFields("Alice", "a@x.com"))
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))

	got, _ := s.registry.GetByCode(s.ctx, "SN-CTX")
	s.Equal(models.StatusAvailable, got.Status)
}
