// ABOUTME: Block clock for the soft driver
// ABOUTME: Calls a tick function once per block period on its own goroutine
package softdriver

import (
	"sync"
	"time"
)

// clock drives buffer switches at blockFrames/sampleRate intervals
type clock struct {
	period time.Duration
	tick   func()

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func newClock(blockFrames int, sampleRate float64, tick func()) *clock {
	period := time.Duration(float64(blockFrames) / sampleRate * float64(time.Second))
	if period <= 0 {
		period = time.Millisecond
	}
	return &clock{
		period: period,
		tick:   tick,
		stopCh: make(chan struct{}),
	}
}

func (c *clock) start() {
	c.wg.Add(1)
	go c.run()
}

func (c *clock) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// stop ends the goroutine and waits for a running tick to return
func (c *clock) stop() {
	close(c.stopCh)
	c.wg.Wait()
}
