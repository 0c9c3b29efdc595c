package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/docopt/docopt-go"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/config"
	"dormhop/models"
	"dormhop/services"
	"dormhop/session"
	"dormhop/signin/google"
	"dormhop/storage"
	"dormhop/utils"
)

const redisTokenKey = "dormhop:session_token"

// app holds what every command needs. Commands that call the API resume
// the stored session first.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *api.Client
	manager *session.Manager
	retry   *utils.RetryConfig
	out     printer
	closers []io.Closer
}

func newApp(cfg *config.Config, logger *zap.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		client: api.NewClient(cfg.APIBaseURL, cfg.APITimeout(), logger),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryBaseDelay(),
			Logger:      logger,
			ShouldRetry: api.IsRetryable,
		},
		out: printer{w: out},
	}

	var store session.TokenStore
	switch cfg.TokenStore {
	case config.TokenStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, rdb)
		store = session.NewRedisTokenStore(rdb, redisTokenKey, 0)
	default:
		store = session.NewFileTokenStore(cfg.TokenFile)
	}
	a.manager = session.NewManager(store, a.client, logger)

	logger.Debug("Client ready",
		zap.String("api", cfg.APIBaseURL),
		zap.String("token_store", cfg.TokenStore),
	)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.Warn("Close failed", zap.Error(err))
		}
	}
}

// authed resumes the stored session and returns a client bound to it.
func (a *app) authed(ctx context.Context) (*session.Session, *api.Client, error) {
	s, err := a.manager.Resume(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, a.manager.Client(s), nil
}

func (a *app) login(ctx context.Context, _ docopt.Opts) error {
	if a.cfg.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is not set")
	}
	signIn := google.New(google.Config{
		ClientID:     a.cfg.GoogleClientID,
		ClientSecret: a.cfg.GoogleClientSecret,
		RedirectURL:  a.cfg.GoogleRedirectURL,
		ChromeBin:    a.cfg.ChromeBin,
	}, a.logger)

	idToken, err := signIn.IDToken(ctx)
	if err != nil {
		return err
	}
	s, err := a.manager.Login(ctx, idToken)
	if err != nil {
		return err
	}

	a.out.user(s.User())
	if s.NeedsProfile() {
		a.out.notice("Describe your room next with `dormhop edit-room`.")
	}
	return nil
}

func (a *app) logout(ctx context.Context, _ docopt.Opts) error {
	if err := a.manager.Logout(ctx, nil); err != nil {
		return err
	}
	a.out.notice("Signed out.")
	return nil
}

func (a *app) whoami(ctx context.Context, _ docopt.Opts) error {
	s, _, err := a.authed(ctx)
	if err != nil {
		return err
	}
	a.out.user(s.User())
	if exp := s.Claims().ExpiresAt; exp != nil {
		a.out.notice(fmt.Sprintf("Session valid until %s", exp.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

// search loads a filtered room view as described by opts.
func (a *app) search(ctx context.Context, client *api.Client, opts docopt.Opts) (services.SearchView, error) {
	m := services.NewSearchModel(client, client, client, services.SearchOptions{
		PageSize:       a.cfg.PageSize,
		MaxConcurrency: a.cfg.MaxConcurrency,
		RateLimitMs:    a.cfg.RateLimitMs,
		Retry:          a.retry,
	}, a.logger)
	defer m.Close()

	if err := applyFilters(m.Filters(), opts); err != nil {
		return services.SearchView{}, err
	}

	// Views can arrive out of order from the concurrent loads; keep the newest.
	var (
		mu     sync.Mutex
		latest services.SearchView
	)
	stop := m.Subscribe(func(v services.SearchView) {
		mu.Lock()
		defer mu.Unlock()
		if v.Version >= latest.Version {
			latest = v
		}
	})
	defer stop()

	loadErr := m.Load(ctx)

	pages, _ := opts.Int("--pages")
	for i := 0; i < pages && loadErr == nil; i++ {
		if m.View().Exhausted {
			break
		}
		loadErr = m.LoadMore(ctx)
	}

	mu.Lock()
	defer mu.Unlock()
	if loadErr != nil && len(latest.Rooms) == 0 {
		return latest, loadErr
	}
	if latest.Error != "" {
		a.out.warning(latest.Error)
	}
	return latest, nil
}

func applyFilters(f *services.FilterStore, opts docopt.Opts) error {
	if q, err := opts.String("--query"); err == nil {
		f.SetQuery(q)
	}
	if occs, ok := opts["--occupancy"].([]string); ok {
		for _, o := range occs {
			n, ok := services.ParseOccupancy(o)
			if !ok {
				return fmt.Errorf("unknown room size %q (use %s or a number)", o, strings.Join(services.OccupancyLabels(), ", "))
			}
			f.ToggleOccupancy(n, true)
		}
	}
	if campuses, ok := opts["--campus"].([]string); ok {
		for _, c := range campuses {
			f.ToggleCampus(c, true)
		}
	}
	if g, err := opts.String("--gender"); err == nil {
		f.SetGenderFilter(g)
	}
	if rec, _ := opts.Bool("--recommended"); rec {
		f.SetShowRecommended(true)
	}
	return nil
}

func (a *app) rooms(ctx context.Context, opts docopt.Opts) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	view, err := a.search(ctx, client, opts)
	if err != nil {
		return err
	}
	a.out.rooms(view)

	if on, _ := opts.Bool("--insights"); on {
		svc := services.NewInsightService(a.logger)
		svc.Print(a.out.w, svc.Generate(view.Rooms, view.SavedIDs))
	}
	return nil
}

func (a *app) room(ctx context.Context, opts docopt.Opts) error {
	id, err := idArg(opts, "<room_id>")
	if err != nil {
		return err
	}
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}

	detail, err := services.NewRoomDetail(client, a.cfg.FeaturesCacheTTL(), a.logger).Load(ctx, id)
	if err != nil {
		return err
	}
	favorites := services.NewFavorites(client, a.retry, a.logger)
	if err := favorites.Load(ctx); err != nil {
		a.out.warning(favorites.Error())
	}
	a.out.detail(detail, favorites.IsSaved(id))
	return nil
}

func (a *app) save(ctx context.Context, opts docopt.Opts) error {
	id, err := idArg(opts, "<room_id>")
	if err != nil {
		return err
	}
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}

	favorites := services.NewFavorites(client, a.retry, a.logger)
	if err := favorites.Load(ctx); err != nil {
		return err
	}
	if err := favorites.SetSaved(ctx, id, true); err != nil {
		return err
	}
	a.out.notice(fmt.Sprintf("Saved room %d.", id))
	return nil
}

func (a *app) unsave(ctx context.Context, opts docopt.Opts) error {
	id, err := idArg(opts, "<room_id>")
	if err != nil {
		return err
	}
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}

	saved := services.NewSavedRooms(client, a.retry, a.logger)
	if err := saved.Unsave(ctx, id); err != nil {
		a.out.warning(saved.View().Error)
		return err
	}
	a.out.notice(fmt.Sprintf("Removed room %d from saved rooms.", id))
	return nil
}

func (a *app) saved(ctx context.Context, _ docopt.Opts) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	saved := services.NewSavedRooms(client, a.retry, a.logger)
	if err := saved.Load(ctx); err != nil {
		return err
	}
	a.out.savedRooms(saved.View().Rooms)
	return nil
}

func (a *app) board(ctx context.Context) (*services.KnockBoard, error) {
	_, client, err := a.authed(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewKnockBoard(client, a.retry, a.logger), nil
}

func (a *app) knock(ctx context.Context, opts docopt.Opts) error {
	id, err := idArg(opts, "<room_id>")
	if err != nil {
		return err
	}
	board, err := a.board(ctx)
	if err != nil {
		return err
	}
	err = board.SendKnock(ctx, id, func(k models.Knock) {
		a.out.notice(fmt.Sprintf("Knocked on room %d (knock #%d).", id, k.ID))
	})
	if err != nil {
		return err
	}
	a.out.knocks(board.View())
	return nil
}

func (a *app) knocks(ctx context.Context, _ docopt.Opts) error {
	board, err := a.board(ctx)
	if err != nil {
		return err
	}
	if err := board.Load(ctx); err != nil {
		return err
	}
	a.out.knocks(board.View())
	return nil
}

func (a *app) accept(ctx context.Context, opts docopt.Opts) error {
	id, err := idArg(opts, "<knock_id>")
	if err != nil {
		return err
	}
	board, err := a.board(ctx)
	if err != nil {
		return err
	}
	if err := board.AcceptKnock(ctx, id); err != nil {
		return err
	}
	a.out.knocks(board.View())
	return nil
}

func (a *app) deleteKnock(ctx context.Context, opts docopt.Opts) error {
	id, err := idArg(opts, "<knock_id>")
	if err != nil {
		return err
	}
	board, err := a.board(ctx)
	if err != nil {
		return err
	}
	if err := board.DeleteKnock(ctx, id); err != nil {
		return err
	}
	a.out.knocks(board.View())
	return nil
}

func (a *app) profile(ctx context.Context, _ docopt.Opts) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	posting := services.NewMyPosting(client, a.logger)
	if err := posting.Refresh(ctx); err != nil {
		return err
	}
	a.out.user(posting.User())
	return nil
}

func (a *app) editRoom(ctx context.Context, opts docopt.Opts) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}

	editor := services.NewProfileEditor(client, services.NewCleaner(a.logger), a.logger)
	if err := editor.Prefill(ctx); err != nil {
		return err
	}

	dorm, _ := opts.String("--dorm")
	number, _ := opts.String("--room-number")
	size, _ := opts.String("--size")
	editor.SetDorm(dorm)
	editor.SetRoomNumber(number)
	editor.SetOccupancy(size)
	if amenities, ok := opts["--amenity"].([]string); ok && len(amenities) > 0 {
		for _, existing := range editor.State().Form.Amenities {
			editor.RemoveAmenity(existing)
		}
		for _, am := range amenities {
			editor.AddAmenity(am)
		}
	}
	if desc, err := opts.String("--description"); err == nil {
		editor.SetDescription(desc)
	}
	if listed, err := opts.String("--listed"); err == nil {
		editor.SetRoomListed(listed == "on")
	}

	room, err := editor.Save(ctx)
	if err != nil {
		return err
	}
	a.out.notice(fmt.Sprintf("Saved %s %s.", room.Dorm, room.RoomNumber))
	return nil
}

func (a *app) visibility(ctx context.Context, opts docopt.Opts) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	on, _ := opts.Bool("on")

	posting := services.NewMyPosting(client, a.logger)
	if err := posting.Refresh(ctx); err != nil {
		return err
	}
	listed, err := posting.SetVisibility(ctx, on)
	if err != nil {
		return err
	}
	if listed {
		a.out.notice("Your room is listed.")
	} else {
		a.out.notice("Your room is hidden.")
	}
	return nil
}

func (a *app) export(ctx context.Context, opts docopt.Opts) error {
	_, client, err := a.authed(ctx)
	if err != nil {
		return err
	}
	view, err := a.search(ctx, client, opts)
	if err != nil {
		return err
	}

	writers := []storage.RoomWriter{}

	path, perr := opts.String("--csv")
	if perr != nil || path == "" {
		path = a.cfg.CSVOutputPath
	}
	csvWriter, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	writers = append(writers, csvWriter)

	var archive *storage.PostgresWriter
	if on, _ := opts.Bool("--postgres"); on {
		archive, err = storage.NewPostgresWriter(ctx, a.cfg.DSN(), a.logger)
		if err != nil {
			_ = csvWriter.Close()
			return err
		}
		if replace, _ := opts.Bool("--replace"); replace {
			if err := archive.Clear(); err != nil {
				_ = csvWriter.Close()
				_ = archive.Close()
				return err
			}
		}
		writers = append(writers, archive)
	}

	for _, w := range writers {
		if err := w.WriteRooms(view.Rooms); err != nil {
			a.logger.Error("Export write failed", zap.Error(err))
			a.out.warning(err.Error())
		}
	}

	if archive != nil {
		if stored, err := archive.FetchAll(); err == nil {
			a.out.notice(fmt.Sprintf("Archive holds %d rooms.", len(stored)))
		}
	}
	for _, w := range writers {
		if err := w.Close(); err != nil {
			a.logger.Warn("Close failed", zap.Error(err))
		}
	}

	a.out.notice(fmt.Sprintf("Exported %d rooms to %s.", len(view.Rooms), path))
	return nil
}
