package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prakharpks02/floww-wall/internal/config"
	"github.com/prakharpks02/floww-wall/internal/database"
	"github.com/prakharpks02/floww-wall/internal/feed"
	"github.com/prakharpks02/floww-wall/internal/identity"
	"github.com/prakharpks02/floww-wall/internal/ledger"
	"github.com/prakharpks02/floww-wall/internal/logging"
	"github.com/prakharpks02/floww-wall/internal/remote"
	"github.com/prakharpks02/floww-wall/internal/stubserver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "wall-cli",
		Short: "Floww community wall client",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newFeedCommand())
	rootCmd.AddCommand(newPostCommand())
	rootCmd.AddCommand(newReactCommand())
	rootCmd.AddCommand(newCommentCommand())
	rootCmd.AddCommand(newStubServerCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("backend-url", defaults.GetString("backend.url"), "Wall backend base URL")
	cmd.PersistentFlags().String("session-token", "", "Session JWT identifying the acting user")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite path for the reaction ledger")
	cmd.PersistentFlags().Int("page-size", defaults.GetInt("feed.page_size"), "Feed page size")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "backend.url", "backend-url")
	bindFlag(cmd, "session.token", "session-token")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "feed.page_size", "page-size")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// engine bundles the wired client core for one CLI invocation.
type engine struct {
	cfg       config.AppConfig
	logger    *zap.Logger
	profile   identity.Profile
	store     *feed.Store
	paginator *feed.Paginator
	manager   *feed.Manager
	closeDB   func()
}

func buildEngine(ctx context.Context, requireIdentity bool) (*engine, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return nil, err
	}

	profile := identity.Profile{ID: "anonymous", DisplayName: "Anonymous"}
	if appConfig.SessionToken != "" {
		profile, err = identity.FromSessionToken(appConfig.SessionToken)
		if err != nil {
			return nil, err
		}
	} else if requireIdentity {
		return nil, fmt.Errorf("session.token is required for this command")
	}

	client, err := remote.NewClient(remote.ClientConfig{
		BaseURL:      appConfig.BackendURL,
		SessionToken: appConfig.SessionToken,
		HTTPClient:   &http.Client{Timeout: appConfig.HTTPTimeout},
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	reactionLedger, err := ledger.NewLedger(ctx, ledger.ServiceConfig{
		Database: db,
		UserID:   profile.ID,
		Logger:   logger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	store := feed.NewStore()
	paginator, err := feed.NewPaginator(feed.PaginatorConfig{
		Store:      store,
		Remote:     client,
		ActingUser: profile.AsAuthor(),
		PageSize:   appConfig.PageSize,
		Logger:     logger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	manager, err := feed.NewManager(feed.ManagerConfig{
		Store:       store,
		Remote:      client,
		Ledger:      reactionLedger,
		ActingUser:  profile.AsAuthor(),
		IDProvider:  feed.NewUUIDProvider(),
		Logger:      logger,
		RefreshFeed: paginator.Refresh,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &engine{
		cfg:       appConfig,
		logger:    logger,
		profile:   profile,
		store:     store,
		paginator: paginator,
		manager:   manager,
		closeDB:   func() { sqlDB.Close() },
	}, nil
}

func (e *engine) close() {
	e.closeDB()
	e.logger.Sync() //nolint:errcheck
}

func newFeedCommand() *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Page through the community wall",
		RunE: func(cmd *cobra.Command, args []string) error {
			wallEngine, err := buildEngine(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer wallEngine.close()

			if err := wallEngine.paginator.LoadPage(cmd.Context(), true); err != nil {
				return err
			}
			for loaded := 1; loaded < pages && wallEngine.paginator.State().HasMore; loaded++ {
				if err := wallEngine.paginator.LoadPage(cmd.Context(), false); err != nil {
					return err
				}
			}

			for _, post := range wallEngine.store.Snapshot() {
				fmt.Printf("%s  %s\n", post.CanonicalID, post.Author.DisplayName)
				fmt.Printf("    %s\n", post.Content)
				for reactionType, detail := range post.Reactions {
					fmt.Printf("    %s x%d\n", reactionType, detail.Count)
				}
				for _, comment := range post.Comments {
					fmt.Printf("    > %s: %s\n", comment.Author.DisplayName, comment.Content)
				}
			}
			state := wallEngine.paginator.State()
			if state.HasMore {
				fmt.Println("(more available)")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	return cmd
}

func newPostCommand() *cobra.Command {
	var content string
	var tags []string
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post to the wall",
		RunE: func(cmd *cobra.Command, args []string) error {
			wallEngine, err := buildEngine(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer wallEngine.close()

			created, err := wallEngine.manager.CreatePost(cmd.Context(), feed.Draft{Content: content, Tags: tags})
			if err != nil {
				return err
			}
			fmt.Printf("posted %s\n", created.CanonicalID)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Post content")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Post tags")
	return cmd
}

func newReactCommand() *cobra.Command {
	var entityID, reactionType string
	cmd := &cobra.Command{
		Use:   "react",
		Short: "Toggle a reaction on a post or comment",
		RunE: func(cmd *cobra.Command, args []string) error {
			wallEngine, err := buildEngine(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer wallEngine.close()

			if err := wallEngine.paginator.LoadPage(cmd.Context(), true); err != nil {
				return err
			}
			present, err := wallEngine.manager.React(cmd.Context(), entityID, reactionType)
			if err != nil {
				return err
			}
			if present {
				fmt.Printf("added %s\n", reactionType)
			} else {
				fmt.Printf("removed %s\n", reactionType)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entityID, "entity", "", "Target entity id")
	cmd.Flags().StringVar(&reactionType, "type", "like", "Reaction type")
	return cmd
}

func newCommentCommand() *cobra.Command {
	var postID, content string
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Comment on a post",
		RunE: func(cmd *cobra.Command, args []string) error {
			wallEngine, err := buildEngine(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer wallEngine.close()

			if err := wallEngine.paginator.LoadPage(cmd.Context(), true); err != nil {
				return err
			}
			created, err := wallEngine.manager.AddComment(cmd.Context(), postID, feed.Draft{Content: content})
			if err != nil {
				return err
			}
			fmt.Printf("commented %s\n", created.CanonicalID)
			return nil
		},
	}
	cmd.Flags().StringVar(&postID, "post", "", "Target post id")
	cmd.Flags().StringVar(&content, "content", "", "Comment content")
	return cmd
}

func newStubServerCommand() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "stub-server",
		Short: "Run the in-memory development backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(appConfig.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			handler := stubserver.NewHTTPHandler(stubserver.Dependencies{Logger: logger})
			httpServer := &http.Server{Addr: address, Handler: handler}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("stub server starting", zap.String("address", address))
				err := httpServer.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-signalCtx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&address, "address", "0.0.0.0:8080", "HTTP listen address")
	return cmd
}
