package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
	"dormhop/utils"
)

// SearchOptions tunes a SearchModel.
type SearchOptions struct {
	PageSize       int
	MaxConcurrency int
	RateLimitMs    int
	Retry          *utils.RetryConfig
}

// SearchView is one published state of the search screen. Version grows
// with every publication, so a consumer can drop views older than one it
// has already rendered.
type SearchView struct {
	Version   uint64
	Rooms     []models.Room
	SavedIDs  map[int]struct{}
	Filter    models.FilterState
	Loading   bool
	Exhausted bool
	Error     string
}

// IsSaved reports whether roomID is saved in this view.
func (v SearchView) IsSaved(roomID int) bool {
	_, ok := v.SavedIDs[roomID]
	return ok
}

// SearchModel combines the all-rooms and recommended collections, the
// saved set and the filter into a single observable room view.
type SearchModel struct {
	rooms  RoomSource
	opts   SearchOptions
	logger *zap.Logger

	filters   *FilterStore
	favorites *Favorites
	paginator *Paginator

	mu          sync.Mutex
	all         []models.Room
	recommended []models.Room
	allRev      uint64
	recRev      uint64
	loading     int
	errMsg      string
	composer    Composer
	version     uint64
	views       observers[SearchView]
	detach      []func()
}

// NewSearchModel wires a search screen over its sources.
func NewSearchModel(rooms RoomSource, pages PageSource, saved SavedSource, opts SearchOptions, logger *zap.Logger) *SearchModel {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 3
	}
	m := &SearchModel{
		rooms:     rooms,
		opts:      opts,
		logger:    logger,
		filters:   NewFilterStore(),
		favorites: NewFavorites(saved, opts.Retry, logger),
		paginator: NewPaginator(pages, opts.PageSize, logger),
	}
	m.detach = append(m.detach,
		m.filters.Subscribe(func(models.FilterState) { m.publish() }),
		m.favorites.Subscribe(m.publish),
	)
	return m
}

// Filters returns the filter store driving this view.
func (m *SearchModel) Filters() *FilterStore { return m.filters }

// Favorites returns the saved set shown by this view.
func (m *SearchModel) Favorites() *Favorites { return m.favorites }

// Close detaches the model from its filter store and saved set.
func (m *SearchModel) Close() {
	m.mu.Lock()
	detach := m.detach
	m.detach = nil
	m.mu.Unlock()
	for _, fn := range detach {
		fn()
	}
}

// Subscribe registers fn for every published view and immediately sends it
// the current one. The returned func unsubscribes.
func (m *SearchModel) Subscribe(fn func(SearchView)) func() {
	unsubscribe := m.views.subscribe(fn)
	fn(m.View())
	return unsubscribe
}

// View returns the current state without publishing.
func (m *SearchModel) View() SearchView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildLocked()
}

// Rooms returns the currently visible rooms.
func (m *SearchModel) Rooms() []models.Room {
	return m.View().Rooms
}

// Error returns the message of the last failure, or "".
func (m *SearchModel) Error() string {
	return m.View().Error
}

// Load fetches all rooms, recommended rooms and saved ids concurrently.
// Each collection is published as soon as it arrives; a failed one keeps
// its previous value. The first failure is returned with the others joined.
func (m *SearchModel) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loading++
	m.errMsg = ""
	m.mu.Unlock()
	m.publish()

	var (
		errMu sync.Mutex
		errs  []error
	)
	record := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	pool := utils.NewWorkerPool(m.opts.MaxConcurrency, m.opts.RateLimitMs)
	pool.Submit(func() {
		rooms, err := fetch(ctx, m.opts.Retry, "list rooms", m.rooms.ListRooms)
		if err != nil {
			record(err)
			return
		}
		m.mu.Lock()
		m.all = rooms
		m.allRev++
		m.mu.Unlock()
		m.paginator.Reset(rooms)
		m.logger.Info("Loaded rooms", zap.Int("count", len(rooms)))
		m.publish()
	})
	pool.Submit(func() {
		rooms, err := fetch(ctx, m.opts.Retry, "list recommended rooms", m.rooms.ListRecommendedRooms)
		if err != nil {
			record(err)
			return
		}
		m.mu.Lock()
		m.recommended = rooms
		m.recRev++
		m.mu.Unlock()
		m.logger.Info("Loaded recommended rooms", zap.Int("count", len(rooms)))
		m.publish()
	})
	pool.Submit(func() {
		if err := m.favorites.Load(ctx); err != nil {
			record(err)
		}
	})
	pool.Wait()

	err := errors.Join(errs...)

	m.mu.Lock()
	m.loading--
	if err != nil {
		m.errMsg = "Failed to load rooms: " + api.Message(errs[0])
	}
	m.mu.Unlock()
	m.publish()

	if err != nil {
		m.logger.Warn("Room load finished with errors", zap.Int("failures", len(errs)), zap.Error(err))
	}
	return err
}

// LoadMore appends the next page of rooms to the all-rooms collection,
// skipping rooms already present. It is a no-op while another page is in
// flight or once pagination is exhausted.
func (m *SearchModel) LoadMore(ctx context.Context) error {
	page, err := m.paginator.Fetch(ctx)
	if err != nil {
		m.mu.Lock()
		m.errMsg = "Failed to load more rooms: " + api.Message(err)
		m.mu.Unlock()
		m.publish()
		m.logger.Warn("Failed to load room page", zap.Error(err))
		return err
	}

	if len(page) > 0 {
		m.mu.Lock()
		merged := AppendUnique(m.all, page)
		if len(merged) != len(m.all) {
			m.all = merged
			m.allRev++
		}
		m.mu.Unlock()
	}
	m.publish()
	return nil
}

// ToggleSave flips the saved state of roomID once the server confirms it.
func (m *SearchModel) ToggleSave(ctx context.Context, roomID int) (bool, error) {
	return m.favorites.ToggleSave(ctx, roomID)
}

// SetSaved saves or unsaves roomID once the server confirms it.
func (m *SearchModel) SetSaved(ctx context.Context, roomID int, saved bool) error {
	return m.favorites.SetSaved(ctx, roomID, saved)
}

func (m *SearchModel) publish() {
	m.mu.Lock()
	m.version++
	view := m.buildLocked()
	m.mu.Unlock()
	m.views.notify(view)
}

func (m *SearchModel) buildLocked() SearchView {
	filter, filterRev := m.filters.Snapshot()
	saved, _ := m.favorites.Snapshot()

	rooms := m.composer.View(Revision{
		Rooms:       m.allRev,
		Recommended: m.recRev,
		Filter:      filterRev,
	}, func() ViewInputs {
		return ViewInputs{AllRooms: m.all, RecommendedRooms: m.recommended, Filter: filter}
	})

	errMsg := m.errMsg
	if errMsg == "" {
		errMsg = m.favorites.Error()
	}

	return SearchView{
		Version:   m.version,
		Rooms:     rooms,
		SavedIDs:  saved,
		Filter:    filter,
		Loading:   m.loading > 0,
		Exhausted: m.paginator.Exhausted(),
		Error:     errMsg,
	}
}
