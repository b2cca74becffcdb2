package units_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dflemin3/ICgen/internal/units"
)

func TestUnits(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Units Suite")
}

var _ = Describe("Unit", func() {
	It("converts between compatible length units", func() {
		r := units.NewScalar(1.0, units.AU)
		cm, err := r.In(units.Cm)
		Expect(err).NotTo(HaveOccurred())
		Expect(cm).To(BeNumerically("~", 1.495978707e13, 1e3))
	})

	It("round-trips a conversion", func() {
		s := units.NewScalar(2.35, units.ProtonMass)
		g, err := s.ConvertTo(units.Gram)
		Expect(err).NotTo(HaveOccurred())
		back, err := g.ConvertTo(units.ProtonMass)
		Expect(err).NotTo(HaveOccurred())
		Expect(back.Value).To(BeNumerically("~", 2.35, 1e-12))
	})

	It("rejects incompatible conversions", func() {
		s := units.NewScalar(1.0, units.AU)
		_, err := s.ConvertTo(units.Kelvin)
		var mismatch *units.MismatchError
		Expect(err).To(HaveOccurred())
		Expect(err).To(BeAssignableToTypeOf(mismatch))
	})

	It("composes derived units", func() {
		u := units.MSol.Div(units.AU.Pow(3))
		Expect(u.String()).To(Equal("Msol au**-3"))
		Expect(u.Compatible(units.Gram.Div(units.Cm.Pow(3)))).To(BeTrue())
	})

	It("parses what it prints", func() {
		u := units.MSol.Div(units.AU.Pow(2))
		parsed, err := units.Parse(u.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Compatible(u)).To(BeTrue())
		one := units.NewScalar(1, parsed)
		v, err := one.In(u)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNumerically("~", 1.0, 1e-15))
	})

	It("parses the dimensionless unit", func() {
		u, err := units.Parse("1")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.String()).To(Equal("1"))
	})

	It("rejects unknown symbols", func() {
		_, err := units.Parse("parsec")
		Expect(err).To(HaveOccurred())
	})

	It("converts vectors elementwise", func() {
		v := units.NewVector([]float64{1, 2, 3}, units.AU)
		m, err := v.In(units.Meter)
		Expect(err).NotTo(HaveOccurred())
		Expect(m[1]).To(BeNumerically("~", 2*1.495978707e11, 1e2))
	})
})
