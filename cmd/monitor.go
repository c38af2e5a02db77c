package cmd

import (
	"expvar"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/fitpack/dream/sampler"
)

// monitor exposes live run progress over HTTP via the expvar package. A
// zero monitor that was never started ignores updates, so commands can
// call Update unconditionally.
type monitor struct {
	info    *expvar.Map
	stopped chan struct{}
	server  *http.Server

	Generation *expvar.Int
	Sampling   *expvar.String
	Best       *expvar.Float
	Median     *expvar.Float
	AcceptRate *expvar.Float
	MaxRHat    *expvar.Float
}

// Start begins the monitor on the given address
func (m *monitor) Start(addr string) error {
	if m.info != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	m.info = expvar.NewMap("dream-progress")
	m.stopped = make(chan struct{})
	m.server = &http.Server{
		Addr: addr,
	}

	// Help the user and redirect to the only thing currently available:
	// the handler from the expvar package
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/debug/vars", http.StatusTemporaryRedirect)
	})

	m.Generation = expvar.NewInt("Generation")
	m.Sampling = expvar.NewString("Phase")
	m.Best = expvar.NewFloat("Best-LogP")
	m.Median = expvar.NewFloat("Median-LogP")
	m.AcceptRate = expvar.NewFloat("Accept-Rate")
	m.MaxRHat = expvar.NewFloat("Max-RHat")

	// Actual server that will close the stopped channel on exit
	started := make(chan struct{})
	go func() {
		defer close(m.stopped)
		fmt.Fprintf(os.Stderr, "HTTP now available at %v (see debug/vars/)\n", m.server.Addr)
		close(started)
		m.server.ListenAndServe()
	}()

	<-started
	return nil
}

// Update publishes one progress report. No-op if the monitor was never
// started.
func (m *monitor) Update(p sampler.Progress) {
	if m.info == nil {
		return
	}

	m.Generation.Set(int64(p.Generation))
	if p.Sampling {
		m.Sampling.Set("sampling")
	} else {
		m.Sampling.Set("burn-in")
	}
	if !math.IsInf(p.Best, 0) {
		m.Best.Set(p.Best)
	}
	if !math.IsInf(p.Quartiles[2], 0) && !math.IsNaN(p.Quartiles[2]) {
		m.Median.Set(p.Quartiles[2])
	}
	m.AcceptRate.Set(p.AcceptRate)
	if !math.IsInf(p.MaxRHat, 0) {
		m.MaxRHat.Set(p.MaxRHat)
	}
}

func (m *monitor) Stop() {
	if m.info == nil {
		return
	}

	m.server.Close()

	select {
	case <-m.stopped:
		fmt.Fprintf(os.Stderr, "HTTP Info Stopped\n")
	case <-time.After(2 * time.Second):
		fmt.Fprintf(os.Stderr, "HTTP would NOT stop: just continuing on\n")
	}
}
