//go:build integration

package integration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/LimTec-de/dockapptoggler/internal/daemon"
	"github.com/LimTec-de/dockapptoggler/internal/domain"
	"github.com/LimTec-de/dockapptoggler/internal/sched"
	"github.com/LimTec-de/dockapptoggler/internal/usecase"
)

// harness wires the full event path: synthetic tap events flow through the
// event monitor into the controller, which acts on the fake world.
type harness struct {
	loop    *sched.Loop
	world   *world
	apps    *apps
	ui      *chooser
	tap     *tap
	ctrl    *usecase.Controller
	monitor *daemon.EventMonitor
}

func newHarness() *harness {
	h := &harness{
		loop:  sched.New(),
		world: newWorld(),
		apps:  newApps(),
		ui:    &chooser{},
		tap:   &tap{},
	}
	h.loop.Start()

	logger := zap.NewNop()

	ctrlCfg := usecase.DefaultControllerConfig()
	ctrlCfg.HoverDebounce = 20 * time.Millisecond
	ctrlCfg.LeaveDebounce = 30 * time.Millisecond
	ctrlCfg.MinClickInterval = 5 * time.Millisecond

	winCfg := usecase.DefaultWindowServiceConfig()
	winCfg.RaiseSettleDelay = time.Millisecond
	winCfg.BatchDelay = time.Millisecond

	hit := usecase.NewHitTester(usecase.DefaultHitTesterConfig(), h.world, h.apps, logger)
	windows := usecase.NewWindowService(winCfg, h.world, h.apps, h.loop, logger)
	h.ctrl = usecase.NewController(ctrlCfg, h.loop, hit, windows, h.ui, h.apps, logger)

	evCfg := daemon.DefaultEventMonitorConfig()
	evCfg.RestartSettle = 5 * time.Millisecond
	h.monitor = daemon.NewEventMonitor(evCfg, h.tap, h.loop,
		h.ctrl.Dispatch, h.ctrl.ResetTransientState, logger)

	done := make(chan struct{})
	h.loop.Do(func() {
		_ = h.monitor.Start()
		close(done)
	})
	<-done
	return h
}

func (h *harness) stop() {
	h.loop.Stop()
}

// addDockApp installs an app with a dock icon at slot (one slot is 80pt
// wide at y=1016) and the given window ids, front to back.
func (h *harness) addDockApp(pid int, name string, slot int, windowIDs ...uint32) {
	path := "/Applications/" + name + ".app"
	h.apps.add(domain.AppInfo{
		PID: pid, Name: name, BundleID: "com.test." + name, BundlePath: path,
	})
	x := float64(400 + slot*80)
	h.world.addIcon(h.apps.DockPID(), path, domain.Rect{X: x, Y: 1016, Width: 64, Height: 64})
	for _, id := range windowIDs {
		h.world.addWindow(pid, id, name)
	}
	h.world.setOnScreen(pid, len(windowIDs))
}

func (h *harness) iconCenter(slot int) domain.Point {
	return domain.Point{X: float64(400+slot*80) + 32, Y: 1040}
}

var _ = Describe("Dock hover and click", func() {
	var h *harness

	BeforeEach(func() {
		h = newHarness()
		h.addDockApp(100, "Safari", 0, 11, 12, 13)
		h.addDockApp(200, "Mail", 1, 21)
	})

	AfterEach(func() {
		h.stop()
	})

	Describe("hovering an icon", func() {
		It("opens the window chooser after the dwell delay", func() {
			h.tap.emit(domain.EventMouseMoved, h.iconCenter(0))

			Eventually(h.ui.isOpen, time.Second, 5*time.Millisecond).Should(BeTrue())
			Expect(h.ui.presentedFor()).To(Equal(100))
		})

		It("keeps a single session when sweeping across icons", func() {
			h.tap.emit(domain.EventMouseMoved, h.iconCenter(0))
			h.tap.emit(domain.EventMouseMoved, h.iconCenter(1))

			Eventually(h.ui.isOpen, time.Second, 5*time.Millisecond).Should(BeTrue())
			// The sweep superseded the first hover; only the last icon's
			// session exists.
			Consistently(h.ui.presentedFor, 100*time.Millisecond).Should(Equal(200))
		})

		It("closes the chooser when the pointer leaves", func() {
			h.tap.emit(domain.EventMouseMoved, h.iconCenter(0))
			Eventually(h.ui.isOpen, time.Second, 5*time.Millisecond).Should(BeTrue())

			h.tap.emit(domain.EventMouseMoved, domain.Point{X: 960, Y: 400})
			Eventually(h.ui.isOpen, time.Second, 5*time.Millisecond).Should(BeFalse())
		})

		It("keeps the chooser open while the pointer crosses into it", func() {
			h.tap.emit(domain.EventMouseMoved, h.iconCenter(0))
			Eventually(h.ui.isOpen, time.Second, 5*time.Millisecond).Should(BeTrue())

			// Just above the icon, inside the chooser rect.
			h.tap.emit(domain.EventMouseMoved, domain.Point{X: 432, Y: 900})
			Consistently(h.ui.isOpen, 150*time.Millisecond).Should(BeTrue())
		})
	})

	Describe("clicking an icon", func() {
		click := func(p domain.Point) {
			h.tap.emit(domain.EventLeftDown, p)
			h.tap.emit(domain.EventLeftUp, p)
		}

		It("hides an active app and restores it on the next click", func() {
			Expect(h.apps.Activate(100)).To(Succeed())

			click(h.iconCenter(0))
			Eventually(func() []uint32 {
				return h.world.visibleWindowIDs(100)
			}, time.Second, 5*time.Millisecond).Should(BeEmpty())
			Eventually(func() bool {
				return h.apps.get(100).Hidden
			}, time.Second, 5*time.Millisecond).Should(BeTrue())

			time.Sleep(20 * time.Millisecond) // past the click debounce
			click(h.iconCenter(0))
			Eventually(func() []uint32 {
				return h.world.visibleWindowIDs(100)
			}, time.Second, 5*time.Millisecond).Should(ConsistOf(uint32(11), uint32(12), uint32(13)))

			// Stacking order is rebuilt back to front, front window last.
			Eventually(h.world.raises, time.Second, 5*time.Millisecond).
				Should(Equal([]uint32{13, 12, 11}))
			Expect(h.apps.get(100).Hidden).To(BeFalse())
		})

		It("activates an inactive app without touching its windows", func() {
			Expect(h.apps.Activate(100)).To(Succeed())

			click(h.iconCenter(1))
			Eventually(func() bool {
				return h.apps.get(200).Active
			}, time.Second, 5*time.Millisecond).Should(BeTrue())
			Expect(h.world.visibleWindowIDs(200)).To(ConsistOf(uint32(21)))
		})
	})

	Describe("event tap recovery", func() {
		It("reinstalls the tap and drops the open session", func() {
			h.tap.emit(domain.EventMouseMoved, h.iconCenter(0))
			Eventually(h.ui.isOpen, time.Second, 5*time.Millisecond).Should(BeTrue())

			h.tap.disable()
			h.loop.Do(h.monitor.CheckLiveness)

			Eventually(h.tap.Enabled, time.Second, 5*time.Millisecond).Should(BeTrue())
			Expect(h.ui.isOpen()).To(BeFalse())
		})
	})
})
