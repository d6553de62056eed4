package engineutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/pkg/engine"
	"github.com/envectorhq/envector-mcp/pkg/engine/qdrant"
	"github.com/envectorhq/envector-mcp/pkg/engine/sqlitevec"
)

type NewEngineOpts struct {
	ProviderType string
	Host         string
	Port         int
	APIKey       string
	UseTLS       bool
	DBPath       string
	Logger       *zap.Logger
}

func NewEngine(o *NewEngineOpts) (engine.Engine, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewEngine(qdrant.Config{
			Host:   o.Host,
			Port:   o.Port,
			APIKey: o.APIKey,
			UseTLS: o.UseTLS,
		}, o.Logger)
	case "sqlitevec", "eval":
		return sqlitevec.NewEngine(sqlitevec.Config{
			DBPath: o.DBPath,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported engine provider: %s", o.ProviderType)
	}
}
