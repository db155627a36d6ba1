package core

import (
	"LoraReport/internal/model"
	"LoraReport/internal/queue"
	"LoraReport/internal/schema"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sampler stands in for real sensors: every interval it queues a random
// recurring sample for each registered task.
type Sampler struct {
	Schema   *schema.Registry
	Queue    *queue.Queue
	Interval time.Duration

	rng      *rand.Rand
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSampler constructs a Sampler with a time-seeded generator.
func NewSampler(reg *schema.Registry, q *queue.Queue, interval time.Duration) *Sampler {
	return &Sampler{
		Schema:   reg,
		Queue:    q,
		Interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:     make(chan struct{}),
	}
}

// SampleOnce queues one sample per task and returns how many were queued.
func (s *Sampler) SampleOnce() int {
	n := 0
	for _, task := range s.Schema.Tasks() {
		payload := make([]byte, task.StorageBytes())
		s.rng.Read(payload)
		if _, err := s.Queue.Enqueue(task.ID, model.Recurring, payload); err != nil {
			zap.L().Warn("sample not queued", zap.Uint8("task", task.ID), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// Start begins sampling in the background.
func (s *Sampler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.SampleOnce()
			}
		}
	}()
}

// Stop stops sampling.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
