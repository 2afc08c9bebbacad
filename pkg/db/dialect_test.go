package db

import (
	"testing"

	"github.com/smallbiznis/crm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	for _, dbType := range []string{"postgres", "mysql", "sqlite"} {
		t.Run(dbType, func(t *testing.T) {
			dialector, err := Dialect(config.Config{DBType: dbType, DBPath: "test.db"})
			require.NoError(t, err)
			assert.NotNil(t, dialector)
		})
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}
