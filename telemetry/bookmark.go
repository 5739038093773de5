package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExposed         BookmarkType = "exposed"
	BookmarkConcealed       BookmarkType = "concealed"
	BookmarkBrightnessSpike BookmarkType = "brightness_spike"
	BookmarkMantleTrouble   BookmarkType = "mantle_trouble"
	BookmarkBackpressure    BookmarkType = "backpressure"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector picks out notable windows of a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	exposed     bool
	lastDropped int64
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExposure(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBrightnessSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkMantleTrouble(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBackpressure(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkExposure fires when the player spends most of a window on the other
// side of the visibility threshold than before.
func (bd *BookmarkDetector) checkExposure(stats WindowStats) *Bookmark {
	exposed := stats.VisibleShare > 0.5
	if exposed == bd.exposed {
		return nil
	}
	bd.exposed = exposed

	if exposed {
		return &Bookmark{
			Type:        BookmarkExposed,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Visible %.0f%% of the window (mean visibility %.2f)", stats.VisibleShare*100, stats.VisibilityMean),
		}
	}
	return &Bookmark{
		Type:        BookmarkConcealed,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Back in shadow, visible %.0f%% of the window", stats.VisibleShare*100),
	}
}

func (bd *BookmarkDetector) checkBrightnessSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Samples == 0 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.BrightnessMean
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.BrightnessMean > avg*2.0 && stats.BrightnessMean > 0.1 {
		return &Bookmark{
			Type:        BookmarkBrightnessSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Brightness %.2f is %.1fx average (%.2f)", stats.BrightnessMean, stats.BrightnessMean/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkMantleTrouble(stats WindowStats) *Bookmark {
	failed := stats.MantlesStuck + stats.MantlesReleased
	if failed < 3 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkMantleTrouble,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d failed mantles (%d stuck, %d released), %d succeeded", failed, stats.MantlesStuck, stats.MantlesReleased, stats.MantlesSucceeded),
	}
}

func (bd *BookmarkDetector) checkBackpressure(stats WindowStats) *Bookmark {
	dropped := stats.WorkerDropped - bd.lastDropped
	bd.lastDropped = stats.WorkerDropped
	if dropped <= 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkBackpressure,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Light worker refused %d requests", dropped),
	}
}
