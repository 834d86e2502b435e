package compose

import (
	"sync"

	"github.com/stevecastle/tileroom/occlusion"
	"github.com/stevecastle/tileroom/raster"
)

// Session holds the mutable per-room state the asynchronous collaborators
// feed: the decoded room photo plus depth and segmentation results as they
// arrive. Each new room photo bumps a generation counter; results delivered
// for an earlier generation are dropped, so a superseded photo can never
// leak a stale mask into a render. Priority between depth and segmentation
// is evaluated over the final stored state, not arrival order.
type Session struct {
	mu           sync.Mutex
	generation   uint64
	room         *raster.Buffer
	depth        *occlusion.DepthMap
	segmentation *occlusion.ClassGrid
}

// SetRoom installs a new room photo, invalidating all in-flight inference
// results for the previous one. Returns the new generation; collaborators
// must hand it back with their results.
func (s *Session) SetRoom(room *raster.Buffer) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.room = room
	s.depth = nil
	s.segmentation = nil
	return s.generation
}

// DeliverDepth stores a depth result if it belongs to the current room.
// Stale deliveries are dropped and reported via the return value.
func (s *Session) DeliverDepth(generation uint64, d *occlusion.DepthMap) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.depth = d
	return true
}

// DeliverSegmentation stores a segmentation result if it belongs to the
// current room.
func (s *Session) DeliverSegmentation(generation uint64, g *occlusion.ClassGrid) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.segmentation = g
	return true
}

// Snapshot returns a consistent view of the session for one render pass.
// The returned buffers are the stored ones; passes treat them as read-only
// and allocate fresh outputs, so redundant re-renders are idempotent.
func (s *Session) Snapshot() (room *raster.Buffer, depth *occlusion.DepthMap, seg *occlusion.ClassGrid, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.depth, s.segmentation, s.generation
}
