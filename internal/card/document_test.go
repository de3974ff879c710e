package card

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RenderDocument", func() {
	render := func(c VaccinationCard) string {
		var sb strings.Builder
		Expect(RenderDocument(&sb, c)).To(Succeed())
		return sb.String()
	}

	It("renders patient and record data", func() {
		out := render(VaccinationCard{
			Patient: PatientInfo{Name: "Maria da Silva", BirthDate: "12/03/1986"},
			Records: []VaccinationRecord{
				{ID: "a", Vaccine: "BCG", Date: "15/04/1986", Batch: "123A", Location: "SP", Dose: "Única"},
			},
			ExtractedAt: time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC),
		})

		Expect(out).To(ContainSubstring("Maria da Silva"))
		Expect(out).To(ContainSubstring("BCG"))
		Expect(out).To(ContainSubstring("123A"))
		Expect(out).To(ContainSubstring("01/06/2024 14:30"))
	})

	It("falls back to Não informado for blank patient fields", func() {
		out := render(VaccinationCard{
			Patient: PatientInfo{Name: "Maria da Silva"},
			Records: []VaccinationRecord{{ID: "a", Vaccine: "BCG"}},
		})

		Expect(out).To(ContainSubstring("Não informado"))
	})

	It("shows an empty notice when the card has no records", func() {
		out := render(EmptyCard())
		Expect(out).To(ContainSubstring("Nenhum registro de vacinação encontrado."))
	})

	It("escapes user-entered values", func() {
		out := render(VaccinationCard{
			Patient: PatientInfo{Name: "<script>alert(1)</script>"},
			Records: []VaccinationRecord{},
		})

		Expect(out).NotTo(ContainSubstring("<script>alert(1)</script>"))
	})
})
