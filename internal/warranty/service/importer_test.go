package service

import (
	"errors"
	"fmt"
	"strings"
	"testing/iotest"

	"warranty/internal/warranty/models"
	dErrors "warranty/pkg/domain-errors"
	"warranty/pkg/platform/audit"
)

func (s *ServiceSuite) TestImporter() {
	product := s.product.String()

	s.Run("header, quotes, and blank lines", func() {
		input := "productId,serialNo\n" +
			product + ",IMP-001\n" +
			"\n" +
			`"` + product + `", "IMP-002"` + "\n" +
			product + ",'IMP-003'\n"

		report, err := s.importer.Import(s.as(s.admin), strings.NewReader(input))
		s.Require().NoError(err)
		s.Equal(3, report.Created)
		s.Zero(report.Failed)
		s.Require().Len(report.Rows, 3)
		s.Equal("IMP-001", report.Rows[0].SerialNumber)
		s.Equal(2, report.Rows[0].Line)
		s.Equal("IMP-002", report.Rows[1].SerialNumber)
		s.Equal("IMP-003", report.Rows[2].SerialNumber)

		for _, code := range []string{"IMP-001", "IMP-002", "IMP-003"} {
			rec, err := s.registry.GetByCode(s.ctx, code)
			s.Require().NoError(err)
			s.Equal(models.StatusAvailable, rec.Status)
			s.Equal(s.product, rec.ProductID)
		}
	})

	s.Run("rows fail individually", func() {
		input := fmt.Sprintf("%s,IMP-010\n%s,IMP-010\nnot-a-uuid,IMP-011\n%s\n%s,IMP-001\n",
			product, product, product, product)

		report, err := s.importer.Import(s.as(s.admin), strings.NewReader(input))
		s.Require().NoError(err)
		s.Equal(1, report.Created)
		s.Equal(4, report.Failed)

		results := map[string]int{}
		for _, row := range report.Rows {
			results[row.Result]++
		}
		s.Equal(1, results[ImportResultCreated])
		s.Equal(2, results[string(dErrors.CodeDuplicateSerial)])
		s.Equal(2, results[string(dErrors.CodeInvalidInput)])
		s.Equal("not-a-uuid", report.Rows[2].ProductID)
	})

	s.Run("empty input is rejected", func() {
		_, err := s.importer.Import(s.as(s.admin), strings.NewReader("productId,serialNo\n\n"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unreadable stream creates nothing", func() {
		before, _ := s.registry.List(s.ctx, models.SerialFilter{})
		_, err := s.importer.Import(s.as(s.admin), iotest.ErrReader(errors.New("disk gone")))
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		after, _ := s.registry.List(s.ctx, models.SerialFilter{})
		s.Len(after, len(before))
	})

	s.NotEmpty(s.events.ListByAction(s.ctx, audit.EventSerialImported))
}
