// Copyright 2024-2025 vecdb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"sync"

	"github.com/petermattis/goid"
)

// ReentryLock is a mutex the holding goroutine may take again. It unlocks
// for other goroutines once the holder has unlocked as many times as it
// locked.
type ReentryLock struct {
	mu     sync.Mutex
	cond   *sync.Cond
	holder int64
	depth  uint64
}

var _ sync.Locker = (*ReentryLock)(nil)

func NewReentryLock() *ReentryLock {
	l := &ReentryLock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *ReentryLock) Lock() {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holder == gid {
		l.depth++
		return
	}
	for l.holder != 0 {
		l.cond.Wait()
	}
	l.holder = gid
	l.depth = 1
}

func (l *ReentryLock) Unlock() {
	gid := goid.Get()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth == 0 || l.holder != gid {
		panic("unlock of unlocked mutex")
	}
	l.depth--
	if l.depth == 0 {
		l.holder = 0
		l.cond.Signal()
	}
}
