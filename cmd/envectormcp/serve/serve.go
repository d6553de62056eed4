// Package servecmder provides the serve command running the MCP server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/api"
	"github.com/envectorhq/envector-mcp/api/mcp"
	"github.com/envectorhq/envector-mcp/pkg/config"
	"github.com/envectorhq/envector-mcp/pkg/embeddings"
	embeddingutils "github.com/envectorhq/envector-mcp/pkg/embeddings/utils"
	"github.com/envectorhq/envector-mcp/pkg/engine"
	engineutils "github.com/envectorhq/envector-mcp/pkg/engine/utils"
	"github.com/envectorhq/envector-mcp/pkg/eventstream"
	"github.com/envectorhq/envector-mcp/pkg/eventstream/kafka"
	"github.com/envectorhq/envector-mcp/pkg/eventstream/nop"
	"github.com/envectorhq/envector-mcp/pkg/logger"
)

type ServeCommander struct {
	eval   bool
	debug  bool
	logger *zap.Logger
	config *config.Config
}

const serveLongDesc string = `Run the enVector MCP server.

The server exposes create_index, get_index_list, get_index_info, insert,
and search as MCP tools over streamable HTTP at /mcp.

Every setting is also readable from the environment with the ENVECTOR_
prefix (e.g. ENVECTOR_ENGINE_HOST, ENVECTOR_API_LISTEN).`

const serveShortDesc string = "Run the enVector MCP server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			cmder.config, err = resolveConfig(cmd)
			if err != nil {
				return err
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringP("listen", "l", "", "Address for the HTTP server to listen on")
	cmd.Flags().String("engine", "", "Engine provider (qdrant, sqlitevec)")
	cmd.Flags().String("engine-host", "", "Remote engine host")
	cmd.Flags().Int("engine-port", 0, "Remote engine gRPC port")
	cmd.Flags().String("engine-api-key", "", "Remote engine API key")
	cmd.Flags().Bool("engine-tls", false, "Use TLS to the remote engine")
	cmd.Flags().StringP("sqlite", "s", "", "Path to the SQLite database for the local engine")
	cmd.Flags().String("embedding", "", "Embedding provider (ollama, openai; empty disables embedding)")
	cmd.Flags().String("embedding-target", "", "Embedding provider URL")
	cmd.Flags().String("embedding-model", "", "Embedding model name")
	cmd.Flags().StringSlice("kafka-brokers", nil, "Kafka brokers for audit events (empty disables publishing)")
	cmd.Flags().String("kafka-topic", "", "Kafka topic for audit events")
	cmd.Flags().BoolVar(&cmder.eval, "eval", false, "Run against the local in-process engine")

	return cmd
}

// flagBindings maps config keys to flag names for viper binding.
var flagBindings = map[string]string{
	"api.listen":         "listen",
	"engine.provider":    "engine",
	"engine.host":        "engine-host",
	"engine.port":        "engine-port",
	"engine.api_key":     "engine-api-key",
	"engine.use_tls":     "engine-tls",
	"engine.sqlite_path": "sqlite",
	"embedding.provider": "embedding",
	"embedding.target":   "embedding-target",
	"embedding.model":    "embedding-model",
	"events.brokers":     "kafka-brokers",
	"events.topic":       "kafka-topic",
}

// resolveConfig layers changed flags over environment variables and defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.InitViper()

	for key, flag := range flagBindings {
		f := cmd.Flags().Lookup(flag)
		if f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", flag, err)
			}
		}
	}

	return config.FromViper(v)
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	provider := c.config.Engine.Provider
	if c.eval {
		provider = "sqlitevec"
	}

	eng, err := engineutils.NewEngine(&engineutils.NewEngineOpts{
		ProviderType: provider,
		Host:         c.config.Engine.Host,
		Port:         c.config.Engine.Port,
		APIKey:       c.config.Engine.APIKey,
		UseTLS:       c.config.Engine.UseTLS,
		DBPath:       c.config.Engine.SQLitePath,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	facade, err := engine.NewFacade(eng, c.logger)
	if err != nil {
		return fmt.Errorf("creating facade: %w", err)
	}
	defer facade.Close()

	embedder, err := c.newEmbedder()
	if err != nil {
		return err
	}
	if embedder != nil {
		defer embedder.Close()
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}
	defer publisher.Close()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Facade:    facade,
		Embedder:  embedder,
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	apiServer := api.NewServer(api.Config{
		ListenAddr: c.config.API.Listen,
	}, mcpServer, c.logger)

	c.logger.Info("starting enVector MCP server",
		zap.String("listen", c.config.API.Listen),
		zap.String("engine", provider),
		zap.String("embedding", c.config.Embedding.Provider),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}

func (c *ServeCommander) newEmbedder() (embeddings.Embedder, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.config.Embedding.Provider,
		TargetURL:    c.config.Embedding.Target,
		Model:        c.config.Embedding.Model,
		APIKey:       c.config.Embedding.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}

func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	if len(c.config.Events.Brokers) == 0 {
		c.logger.Info("audit event publishing disabled")
		return nop.NewPublisher(), nil
	}

	publisher, err := kafka.NewPublisher(kafka.Config{
		Brokers: c.config.Events.Brokers,
		Topic:   c.config.Events.Topic,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	c.logger.Info("audit event publishing enabled",
		zap.Strings("brokers", c.config.Events.Brokers),
	)
	return publisher, nil
}
