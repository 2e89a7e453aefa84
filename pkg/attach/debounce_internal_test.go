package attach

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("debouncer", func() {
	var (
		fired chan settled
		d     *debouncer
	)

	BeforeEach(func() {
		fired = make(chan settled, 4)
		d = newDebouncer(10*time.Millisecond, func(key settled) { fired <- key })
		DeferCleanup(d.stop)
	})

	It("fires once the path stays quiet", func() {
		d.touch("a.png")

		var key settled
		Eventually(fired).Should(Receive(&key))
		Expect(key.name).To(Equal("a.png"))
		Expect(d.take(key)).To(BeTrue())
		Expect(d.take(key)).To(BeFalse())
	})

	It("drops a timer that fired before the path was touched again", func() {
		d.touch("a.png")

		var stale settled
		Eventually(fired).Should(Receive(&stale))

		// A write arrives before the fired timer is handled.
		d.touch("a.png")
		Expect(d.take(stale)).To(BeFalse())

		var live settled
		Eventually(fired).Should(Receive(&live))
		Expect(d.take(live)).To(BeTrue())
		Consistently(fired, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("keeps paths independent", func() {
		d.touch("a.png")
		d.touch("b.png")

		names := map[string]bool{}
		for range 2 {
			var key settled
			Eventually(fired).Should(Receive(&key))
			Expect(d.take(key)).To(BeTrue())
			names[key.name] = true
		}
		Expect(names).To(HaveKey("a.png"))
		Expect(names).To(HaveKey("b.png"))
	})
})
