// Package main runs the interactive workspace client: it loads the caller's
// workspace, then reads commands from the terminal and applies them
// optimistically while the remote store catches up.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/teamsync/internal/certgen"
	"github.com/atinyakov/teamsync/internal/client/entity"
	"github.com/atinyakov/teamsync/internal/client/shell"
	"github.com/atinyakov/teamsync/internal/client/storage"
	"github.com/atinyakov/teamsync/internal/config"
	"github.com/atinyakov/teamsync/internal/logger"
	"github.com/atinyakov/teamsync/internal/remote"
)

var (
	version   string
	buildDate string
)

func main() {
	options, err := config.ParseClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if options.ShowVersion {
		fmt.Printf("TeamSync Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openRemote(ctx, options)
	if err != nil {
		zapLogger.Fatal("cannot open remote store", zap.Error(err))
	}

	policy := entity.DefaultPolicy()
	if t := time.Duration(options.RequestTimeout); t > 0 {
		policy.ListTimeout, policy.CreateTimeout, policy.UpdateTimeout, policy.DeleteTimeout = t, t, t, t
	}
	repos := entity.NewRepositories(store, policy, zapLogger)
	core := storage.NewStore(repos, zapLogger)
	defer core.Close()

	loader := storage.NewLoader(core, repos, storage.DefaultLoaderOptions(), zapLogger)
	fmt.Println("Loading workspace...")
	if err := loader.Load(ctx); err != nil {
		var be *storage.BootstrapError
		if errors.As(err, &be) {
			fmt.Println("Workspace unavailable:", be)
		} else {
			fmt.Println("Workspace unavailable:", err)
		}
	}
	storage.StartAutoRefresh(ctx, loader, time.Duration(options.RefreshInterval))

	author := cmp.Or(options.Login, "me")
	shell.New(core, loader, os.Stdin, os.Stdout, author).Run(ctx)
}

// openRemote returns the remote store selected by options, registering a
// session first when only a login is known.
func openRemote(ctx context.Context, options *config.ClientOptions) (remote.Store, error) {
	if options.Backend == "memory" {
		return remote.NewMemoryStore(cmp.Or(options.Login, "local")), nil
	}

	client := &http.Client{}
	if options.CAFile != "" {
		tlsConfig, err := certgen.ClientTLSConfig(options.CAFile)
		if err != nil {
			return nil, err
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
	token := options.Token
	if token == "" {
		if options.Login == "" {
			return nil, errors.New("please provide -token or -login")
		}
		var err error
		token, err = remote.Register(ctx, client, options.ServerURL, options.Login)
		var statusErr *remote.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("login %s is already registered, pass the -token issued at registration: %w", options.Login, err)
		}
		if err != nil {
			return nil, err
		}
		fmt.Printf("Registered %s; reuse the session with -token=%s\n", options.Login, token)
	}
	return remote.NewHTTPStore(options.ServerURL, token, client), nil
}
