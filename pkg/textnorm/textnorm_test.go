package textnorm_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliodocs/folio/pkg/textnorm"
)

func TestTextnorm(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Textnorm Suite")
}

var _ = Describe("Normalize", func() {
	It("joins a sentence wrapped across lines", func() {
		Expect(textnorm.Normalize("remove the cover\nbefore servicing")).
			To(Equal("remove the cover before servicing"))
	})

	It("preserves blank-line paragraph breaks", func() {
		out := textnorm.Normalize("first paragraph\n\nsecond paragraph")
		Expect(out).To(Equal("first paragraph\n\nsecond paragraph"))
	})

	It("joins consecutive wrapped lines", func() {
		Expect(textnorm.Normalize("a\nb\nc\nd")).To(Equal("a b c d"))
	})

	It("collapses runs of spaces", func() {
		Expect(textnorm.Normalize("too    many   spaces")).To(Equal("too many spaces"))
	})

	It("repairs words hyphenated across a line break", func() {
		Expect(textnorm.Normalize("main-\ntenance")).To(Equal("maintenance"))
	})

	It("repairs the warning label from a service manual", func() {
		Expect(textnorm.Normalize("WARN-\nING: 240V")).To(Equal("WARNING: 240V"))
	})

	It("keeps a suspended hyphen that never touched a line break", func() {
		Expect(textnorm.Normalize("inspect short- and long-term seals")).
			To(Equal("inspect short- and long-term seals"))
	})

	It("keeps a spaced range on one line", func() {
		Expect(textnorm.Normalize("torque range 10- 20 Nm")).
			To(Equal("torque range 10- 20 Nm"))
	})

	It("repairs hyphenation across a wrapped line but not within it", func() {
		Expect(textnorm.Normalize("re-\nmove the short- and long-term seals")).
			To(Equal("remove the short- and long-term seals"))
	})

	It("drops a space before punctuation", func() {
		Expect(textnorm.Normalize("check the fuse , then the relay .")).
			To(Equal("check the fuse, then the relay."))
	})

	It("collapses three or more line breaks to one paragraph break", func() {
		out := textnorm.Normalize("one\n\n\n\ntwo")
		Expect(out).To(Equal("one\n\ntwo"))
	})

	It("trims paragraphs and drops empty ones", func() {
		out := textnorm.Normalize("  first  \n\n   \n\n  second  ")
		Expect(out).To(Equal("first\n\nsecond"))
	})

	It("passes a single paragraph through untouched", func() {
		Expect(textnorm.Normalize("no breaks here")).To(Equal("no breaks here"))
	})

	It("returns empty for whitespace-only input", func() {
		Expect(textnorm.Normalize("  \n \n\n  ")).To(Equal(""))
	})

	It("is idempotent", func() {
		inputs := []string{
			"WARN-\nING: 240V",
			"a\nb\n\nc   d ,\n\n\n\ne",
			"",
			"plain paragraph",
		}
		for _, in := range inputs {
			once := textnorm.Normalize(in)
			Expect(textnorm.Normalize(once)).To(Equal(once))
		}
	})
})
