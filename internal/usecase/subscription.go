package usecase

import (
	"sync"

	"github.com/yourusername/scan-pos/internal/domain/entity"
)

// broadcaster savat o'zgarishlarini obunachilarga tarqatadi. Har bir
// obunachining o'z navbati va goroutine'i bor, shuning uchun callback ichidan
// savatni o'zgartirish deadlock bermaydi.
type broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[uint64]*subscriber)}
}

type subscriber struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       []entity.CartSnapshot
	lastVersion string
	touched     bool
	closed      bool
	running     bool // callback bajarilmoqda
	fn          func(entity.CartSnapshot)
}

// add yangi obunachi. Qaytgan funksiya obunani bekor qiladi va bajarilayotgan
// callback tugashini kutadi; uni o'sha obunaning callback'i ichidan chaqirib bo'lmaydi.
func (b *broadcaster) add(fn func(entity.CartSnapshot)) (*subscriber, func()) {
	s := &subscriber{fn: fn}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()

	go s.run()

	var once sync.Once
	return s, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			s.close()
			s.wait()
		})
	}
}

// publish snapshotni barcha obunachilar navbatiga qo'yadi
func (b *broadcaster) publish(snap entity.CartSnapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s.enqueue(snap)
	}
}

func (b *broadcaster) closeAll() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*subscriber)
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

func (b *broadcaster) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (s *subscriber) enqueue(snap entity.CartSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(snap)
}

// seed boshlang'ich holat; undan oldin yangiroq o'zgarish kelgan bo'lsa tashlanadi
func (s *subscriber) seed(snap entity.CartSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.touched {
		return
	}
	s.push(snap)
}

func (s *subscriber) push(snap entity.CartSnapshot) {
	if s.closed {
		return
	}
	// Bir xil versiya ketma-ket ikki marta yetkazilmaydi
	if s.touched && snap.Version == s.lastVersion {
		return
	}
	s.touched = true
	s.lastVersion = snap.Version
	s.queue = append(s.queue, snap)
	s.cond.Broadcast()
}

func (s *subscriber) close() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()
}

// wait bajarilayotgan callback tugashini kutadi
func (s *subscriber) wait() {
	s.mu.Lock()
	for s.running {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func (s *subscriber) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		snap := s.queue[0]
		s.queue = s.queue[1:]
		// close() shu lock ostida closed'ni o'rnatadi: running=true bo'lgan
		// yetkazish wait() tomonidan kutiladi, qolganlari boshlanmaydi
		s.running = true
		s.mu.Unlock()

		s.fn(snap)

		s.mu.Lock()
		s.running = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}
