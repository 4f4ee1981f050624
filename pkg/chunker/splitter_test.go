package chunker_test

import (
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliodocs/folio/pkg/chunker"
)

var _ = Describe("Splitter", func() {
	It("returns short text as a single fragment", func() {
		s := chunker.NewSplitter(100, 20)
		Expect(s.Split("short text")).To(Equal([]string{"short text"}))
	})

	It("returns nothing for whitespace-only text", func() {
		s := chunker.NewSplitter(100, 20)
		Expect(s.Split("   ")).To(BeEmpty())
	})

	It("never emits a fragment over the chunk size", func() {
		s := chunker.NewSplitter(100, 20)
		text := strings.Repeat("The relay clicks twice on startup. ", 30)
		for _, f := range s.Split(text) {
			Expect(len(f)).To(BeNumerically("<=", 100))
		}
	})

	It("prefers sentence boundaries over word boundaries", func() {
		s := chunker.NewSplitter(60, 10)
		text := "First sentence here. Second sentence follows along nicely. Third one."
		fragments := s.Split(text)
		Expect(len(fragments)).To(BeNumerically(">", 1))
		Expect(fragments[0]).To(HaveSuffix("."))
	})

	It("overlaps consecutive fragments", func() {
		s := chunker.NewSplitter(100, 30)
		text := strings.Repeat("alpha beta gamma delta epsilon ", 20)
		fragments := s.Split(text)
		Expect(len(fragments)).To(BeNumerically(">", 1))

		// The head of each fragment replays the tail of the previous one.
		for i := 1; i < len(fragments); i++ {
			head := strings.TrimSpace(fragments[i][:10])
			Expect(fragments[i-1]).To(ContainSubstring(head))
		}
	})

	It("hard-cuts text with no separators", func() {
		s := chunker.NewSplitter(50, 10)
		text := strings.Repeat("x", 200)
		fragments := s.Split(text)
		Expect(len(fragments)).To(BeNumerically(">", 1))
		for _, f := range fragments {
			Expect(len(f)).To(BeNumerically("<=", 50))
		}
	})

	It("never tears a multi-byte rune at a hard cut", func() {
		s := chunker.NewSplitter(50, 10)
		// Umlauts are two bytes and the text has no separators, so every
		// cut is hard and many land mid-rune without the back-off.
		text := strings.Repeat("ölfüllstandsprüfung", 20)
		fragments := s.Split(text)
		Expect(len(fragments)).To(BeNumerically(">", 1))
		for _, f := range fragments {
			Expect(utf8.ValidString(f)).To(BeTrue())
			Expect(len(f)).To(BeNumerically("<=", 50))
		}
	})

	It("keeps overlapping fragments valid UTF-8", func() {
		s := chunker.NewSplitter(60, 25)
		text := strings.Repeat("Drehmoment 10 Nm für die Ölablaßschraube prüfen. ", 20)
		for _, f := range s.Split(text) {
			Expect(utf8.ValidString(f)).To(BeTrue())
		}
	})

	It("covers the whole input", func() {
		s := chunker.NewSplitter(80, 20)
		text := strings.Repeat("Inspect the gasket for cracks. ", 20)
		joined := strings.Join(s.Split(text), " ")
		Expect(joined).To(ContainSubstring("Inspect the gasket"))
		// Last words survive
		Expect(joined).To(HaveSuffix("cracks."))
	})
})
