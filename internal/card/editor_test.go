package card

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Editor", func() {
	var (
		editor  *Editor
		records []VaccinationRecord
	)

	BeforeEach(func() {
		editor = NewEditorWithIDs(&seqIDGenerator{prefix: "row"})
		records = []VaccinationRecord{
			{ID: "a", Vaccine: "BCG", Dose: "Única"},
			{ID: "b", Vaccine: "Sabin", Dose: "1ª"},
			{ID: "c", Vaccine: "Hepatite B", Dose: "2ª"},
		}
	})

	It("starts in viewing mode", func() {
		Expect(editor.State()).To(Equal(Viewing))
		_, ok := editor.Working()
		Expect(ok).To(BeFalse())
	})

	Describe("StartEdit", func() {
		It("captures a working copy of the target row", func() {
			Expect(editor.StartEdit(records, "b")).To(BeTrue())
			Expect(editor.State()).To(Equal(Editing))
			working, ok := editor.Working()
			Expect(ok).To(BeTrue())
			Expect(working.Vaccine).To(Equal("Sabin"))
		})

		It("returns false for an unknown row", func() {
			Expect(editor.StartEdit(records, "missing")).To(BeFalse())
			Expect(editor.State()).To(Equal(Viewing))
		})

		It("abandons a previous edit without saving it", func() {
			editor.StartEdit(records, "a")
			editor.UpdateField("batch", "discarded")

			editor.StartEdit(records, "b")
			working, _ := editor.Working()
			Expect(working.ID).To(Equal("b"))
			Expect(records[0].Batch).To(BeEmpty())
		})
	})

	Describe("UpdateField", func() {
		BeforeEach(func() {
			editor.StartEdit(records, "a")
		})

		It("mutates only the working copy", func() {
			editor.UpdateField("batch", "123A")
			working, _ := editor.Working()
			Expect(working.Batch).To(Equal("123A"))
			Expect(records[0].Batch).To(BeEmpty())
		})

		It("ignores unknown field names", func() {
			editor.UpdateField("id", "hijack")
			working, _ := editor.Working()
			Expect(working.ID).To(Equal("a"))
		})

		It("is a no-op while viewing", func() {
			editor.Cancel()
			editor.UpdateField("batch", "123A")
			_, ok := editor.Working()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Save", func() {
		It("commits the working copy at the same position", func() {
			editor.StartEdit(records, "b")
			editor.UpdateField("location", "RJ")

			updated := editor.Save(records)
			Expect(updated[1].ID).To(Equal("b"))
			Expect(updated[1].Location).To(Equal("RJ"))
			Expect(editor.State()).To(Equal(Viewing))
		})

		It("returns the sequence unchanged when nothing is being edited", func() {
			Expect(editor.Save(records)).To(Equal(records))
		})
	})

	Describe("Cancel", func() {
		It("discards the working copy, committed rows unchanged", func() {
			editor.StartEdit(records, "a")
			editor.UpdateField("notes", "draft")
			editor.Cancel()

			Expect(editor.State()).To(Equal(Viewing))
			Expect(records[0].Notes).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("removes exactly the row with the given ID, order preserved", func() {
			updated := editor.Delete(records, "b")
			Expect(updated).To(HaveLen(2))
			Expect(updated[0].ID).To(Equal("a"))
			Expect(updated[1].ID).To(Equal("c"))
		})

		It("needs no edit mode", func() {
			updated := editor.Delete(records, "a")
			Expect(updated).To(HaveLen(2))
			Expect(editor.State()).To(Equal(Viewing))
		})

		It("clears the edit state when the edited row is deleted", func() {
			editor.StartEdit(records, "b")
			editor.Delete(records, "b")
			Expect(editor.State()).To(Equal(Viewing))
		})

		It("keeps an unrelated edit in progress", func() {
			editor.StartEdit(records, "a")
			editor.Delete(records, "b")
			working, ok := editor.Working()
			Expect(ok).To(BeTrue())
			Expect(working.ID).To(Equal("a"))
		})
	})

	Describe("Add", func() {
		It("appends a blank row with a fresh ID and starts editing it", func() {
			updated := editor.Add(records)
			Expect(updated).To(HaveLen(4))
			added := updated[3]
			Expect(added.ID).To(Equal("row-1"))
			Expect(added).To(Equal(VaccinationRecord{ID: "row-1"}))

			working, ok := editor.Working()
			Expect(ok).To(BeTrue())
			Expect(working.ID).To(Equal("row-1"))
		})

		It("never reuses an ID after deletion", func() {
			updated := editor.Add(records)
			updated = editor.Delete(updated, "row-1")
			updated = editor.Add(updated)
			Expect(updated[3].ID).To(Equal("row-2"))
		})
	})
})
