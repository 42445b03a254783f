//go:build integration

package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/mkliu/usagemon/internal/domain"
	"github.com/mkliu/usagemon/internal/infra"
	"github.com/mkliu/usagemon/internal/usecase"
	"github.com/mkliu/usagemon/test/fixtures"
)

// nopSink discards activity-log failures; the suite writes to temp dirs
// that are expected to be writable.
type nopSink struct{}

func (nopSink) Report(string) {}

var _ = Describe("ActivityEngine with a real CSV log", func() {
	var (
		source *fixtures.FakeEventSource
		log    *infra.ActivityLog
		engine *usecase.Engine
	)

	messages := func() []string {
		events, err := log.ReadDay(time.Now())
		Expect(err).NotTo(HaveOccurred())
		out := make([]string, 0, len(events))
		for _, ev := range events {
			out = append(out, ev.Message)
		}
		return out
	}

	newEngine := func(threshold, interval time.Duration) *usecase.Engine {
		return usecase.NewEngine(usecase.EngineConfig{
			IdleThreshold: threshold,
			CheckInterval: interval,
		}, source, infra.NewTickerTimer(), log, zap.NewNop())
	}

	BeforeEach(func() {
		source = fixtures.NewFakeEventSource("Editor")
		log = infra.NewActivityLog(GinkgoT().TempDir(), nopSink{})
	})

	AfterEach(func() {
		if engine != nil {
			engine.Stop()
		}
	})

	It("writes the start marker followed by the current title", func() {
		engine = newEngine(5*time.Minute, time.Hour)
		Expect(engine.Start()).To(Succeed())

		Expect(messages()).To(Equal([]string{domain.MsgAppStarted, "Editor"}))
	})

	It("collapses rapid duplicate focus notifications into one row", func() {
		engine = newEngine(5*time.Minute, time.Hour)
		Expect(engine.Start()).To(Succeed())

		for i := 0; i < 5; i++ {
			source.FireChange()
		}
		source.SetTitle("Browser")
		source.FireChange()

		Expect(messages()).To(Equal([]string{domain.MsgAppStarted, "Editor", "Browser"}))
	})

	It("detects prolonged inactivity from the timer alone", func() {
		engine = newEngine(50*time.Millisecond, 20*time.Millisecond)
		Expect(engine.Start()).To(Succeed())

		source.SetIdle(100 * time.Millisecond)

		Eventually(messages, time.Second, 10*time.Millisecond).Should(
			ContainElement(domain.MsgIdleStart))

		// Still idle: no further rows accumulate.
		Consistently(messages, 200*time.Millisecond, 50*time.Millisecond).Should(
			Equal([]string{domain.MsgAppStarted, "Editor", domain.MsgIdleStart}))
	})

	It("bookends the idle interval and re-logs the unchanged title", func() {
		engine = newEngine(50*time.Millisecond, 20*time.Millisecond)
		Expect(engine.Start()).To(Succeed())

		source.SetIdle(100 * time.Millisecond)
		Eventually(messages, time.Second, 10*time.Millisecond).Should(
			ContainElement(domain.MsgIdleStart))

		source.SetIdle(0)
		Eventually(messages, time.Second, 10*time.Millisecond).Should(Equal([]string{
			domain.MsgAppStarted, "Editor",
			domain.MsgIdleStart,
			domain.MsgIdleEnd, "Editor",
		}))
	})

	It("closes an open idle interval before the termination reason", func() {
		engine = newEngine(50*time.Millisecond, 20*time.Millisecond)
		Expect(engine.Start()).To(Succeed())

		source.SetIdle(100 * time.Millisecond)
		Eventually(messages, time.Second, 10*time.Millisecond).Should(
			ContainElement(domain.MsgIdleStart))

		engine.StopWithReason(domain.MsgSystemShutdown)

		Expect(messages()).To(Equal([]string{
			domain.MsgAppStarted, "Editor",
			domain.MsgIdleStart,
			domain.MsgIdleEnd, domain.MsgSystemShutdown,
		}))
		Expect(source.Uninstalled()).To(BeTrue())
	})

	It("survives concurrent notifications during shutdown", func() {
		engine = newEngine(5*time.Minute, 5*time.Millisecond)
		Expect(engine.Start()).To(Succeed())

		done := make(chan struct{})
		go func() {
			defer close(done)
			for i := 0; i < 200; i++ {
				source.FireChange()
			}
		}()

		engine.Stop()
		<-done

		// Exactly one closing marker regardless of callback races.
		Expect(messages()).To(HaveLen(3))
		Expect(messages()[2]).To(Equal(domain.MsgAppEnded))
	})
})
