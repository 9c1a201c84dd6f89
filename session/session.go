package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/swipes"
)

// DefaultQuery seeds a session when the user supplied no search text.
const DefaultQuery = "trending fashion apparel"

const (
	batchSize       = 15
	refillThreshold = 5
	leftSwipeLimit  = 15
)

var (
	// ErrNoActiveCard means the session ran past its last product.
	ErrNoActiveCard = errors.New("session: no active card")
	// ErrGenerationInFlight means a try-on for the current card is already pending.
	ErrGenerationInFlight = errors.New("session: try-on generation already in flight")
)

// Source supplies product batches (the serp adapter in production).
type Source interface {
	Search(ctx context.Context, query string, count int) ([]models.ProductCard, error)
}

// Recorder persists swipe decisions (the swipes gateway in production).
type Recorder interface {
	Record(ctx context.Context, userID string, req swipes.Request) (*models.Swipe, error)
}

// TryOnGenerator produces a try-on image URL for a card.
type TryOnGenerator interface {
	Generate(ctx context.Context, userID string, card models.ProductCard) (string, error)
}

// Outcome describes the session after one swipe.
type Outcome struct {
	Swipe        *models.Swipe       `json:"swipe"`
	Next         *models.ProductCard `json:"next,omitempty"`
	Remaining    int                 `json:"remaining"`
	RefinePrompt bool                `json:"refinePrompt,omitempty"`
}

// State is a read-only snapshot of a session.
type State struct {
	SessionID             string              `json:"sessionId"`
	Query                 string              `json:"query"`
	Current               *models.ProductCard `json:"current,omitempty"`
	CurrentIndex          int                 `json:"currentIndex"`
	Remaining             int                 `json:"remaining"`
	ConsecutiveLeftSwipes int                 `json:"consecutiveLeftSwipes"`
	Exhausted             bool                `json:"exhausted"`
}

// Controller owns the per-session swipe state: card sequence, cursor,
// consecutive-left-swipe counter, try-on cache and the in-flight set. All
// state is session-scoped here rather than ambient, and every product load
// carries a generation token so a slow, superseded load cannot overwrite a
// newer one.
type Controller struct {
	mu        sync.Mutex
	id        string
	userID    string
	query     string
	products  []models.ProductCard
	index     int
	leftRun   int
	tryOns    map[string]string
	inFlight  map[string]struct{}
	loadGen   uint64
	source    Source
	recorder  Recorder
	generator TryOnGenerator
}

func NewController(userID string, source Source, recorder Recorder, generator TryOnGenerator) *Controller {
	return &Controller{
		id:        uuid.NewString(),
		userID:    userID,
		source:    source,
		recorder:  recorder,
		generator: generator,
		tryOns:    make(map[string]string),
		inFlight:  make(map[string]struct{}),
	}
}

// ID returns the session identifier. It never rotates for the lifetime of
// the controller, including across reloads.
func (c *Controller) ID() string { return c.id }

// UserID returns the owning user.
func (c *Controller) UserID() string { return c.userID }

// Start (re)loads the session's product batch for the query and resets the
// cursor, counters and caches. A Start that gets superseded by a newer one
// before its fetch resolves is discarded.
func (c *Controller) Start(ctx context.Context, query string) error {
	if query == "" {
		query = DefaultQuery
	}

	c.mu.Lock()
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()

	cards, err := c.source.Search(ctx, query, batchSize)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loadGen {
		// A newer load won the race; drop this one.
		return nil
	}
	c.query = query
	c.products = cards
	c.index = 0
	c.leftRun = 0
	c.tryOns = make(map[string]string)
	c.inFlight = make(map[string]struct{})
	return nil
}

// Current returns the card under the cursor.
func (c *Controller) Current() (models.ProductCard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *Controller) currentLocked() (models.ProductCard, bool) {
	if c.index >= len(c.products) {
		return models.ProductCard{}, false
	}
	return c.products[c.index], true
}

// Swipe records a decision on the current card, then advances the cursor
// and tops up the product queue when fewer than five unswiped cards remain.
// Persistence proceeds with whatever try-on URL is cached at swipe time; a
// failed record leaves the card under the cursor so a retry swipes it again.
func (c *Controller) Swipe(ctx context.Context, direction string) (Outcome, error) {
	c.mu.Lock()
	card, ok := c.currentLocked()
	if !ok {
		c.mu.Unlock()
		return Outcome{}, ErrNoActiveCard
	}
	position := c.index
	tryOnURL := c.tryOns[card.ID]
	gen := c.loadGen
	c.mu.Unlock()

	swipe, err := c.recorder.Record(ctx, c.userID, swipes.Request{
		ProductID:     card.ID,
		Direction:     direction,
		SessionID:     c.id,
		CardPosition:  position,
		Product:       &card,
		TryOnImageURL: tryOnURL,
	})
	if err != nil {
		return Outcome{}, err
	}

	c.mu.Lock()
	var refine bool
	if gen == c.loadGen {
		c.index++
		if direction == models.SwipeLeft {
			c.leftRun++
			if c.leftRun >= leftSwipeLimit {
				refine = true
				c.leftRun = 0
			}
		} else {
			c.leftRun = 0
		}
	}
	needRefill := gen == c.loadGen && len(c.products)-c.index < refillThreshold
	query := c.query
	c.mu.Unlock()

	if needRefill {
		if more, err := c.source.Search(ctx, query, batchSize); err == nil {
			c.mu.Lock()
			if gen == c.loadGen {
				c.products = append(c.products, more...)
			}
			c.mu.Unlock()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := Outcome{Swipe: swipe, Remaining: len(c.products) - c.index, RefinePrompt: refine}
	if next, ok := c.currentLocked(); ok {
		out.Next = &next
	}
	return out, nil
}

// GenerateTryOn produces a try-on image for the current card only. Cached
// results are returned as-is and at most one generation is pending per
// product id; upcoming cards are deliberately not prefetched.
func (c *Controller) GenerateTryOn(ctx context.Context) (string, error) {
	c.mu.Lock()
	card, ok := c.currentLocked()
	if !ok {
		c.mu.Unlock()
		return "", ErrNoActiveCard
	}
	if url, cached := c.tryOns[card.ID]; cached {
		c.mu.Unlock()
		return url, nil
	}
	if _, busy := c.inFlight[card.ID]; busy {
		c.mu.Unlock()
		return "", ErrGenerationInFlight
	}
	c.inFlight[card.ID] = struct{}{}
	c.mu.Unlock()

	url, err := c.generator.Generate(ctx, c.userID, card)

	c.mu.Lock()
	delete(c.inFlight, card.ID)
	if err == nil && url != "" {
		c.tryOns[card.ID] = url
	}
	c.mu.Unlock()

	return url, err
}

// TryOnFor returns the cached try-on URL for a product, if any.
func (c *Controller) TryOnFor(productID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.tryOns[productID]
	return url, ok
}

// Snapshot returns the session's current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		SessionID:             c.id,
		Query:                 c.query,
		CurrentIndex:          c.index,
		Remaining:             len(c.products) - c.index,
		ConsecutiveLeftSwipes: c.leftRun,
		Exhausted:             c.index >= len(c.products),
	}
	if card, ok := c.currentLocked(); ok {
		st.Current = &card
	}
	return st
}
