package connmgr

import (
	"fmt"

	"github.com/maxpoletaev/gridlink/errs"
)

// ConnectionStrategy decides how many connections the manager keeps to each
// member it is connected to.
type ConnectionStrategy struct {
	name     string
	poolSize int
}

// SingleConnectionPerMember multiplexes all requests to a member over one
// connection.
func SingleConnectionPerMember() ConnectionStrategy {
	return ConnectionStrategy{name: "single", poolSize: 1}
}

// PooledConnections keeps up to size connections to each member and spreads
// requests over them in turn.
func PooledConnections(size int) ConnectionStrategy {
	return ConnectionStrategy{name: "pooled", poolSize: size}
}

func (s ConnectionStrategy) PoolSize() int {
	return s.poolSize
}

func (s ConnectionStrategy) String() string {
	return fmt.Sprintf("%s(%d)", s.name, s.poolSize)
}

func (s ConnectionStrategy) Validate() error {
	if s.poolSize <= 0 {
		return errs.ErrConfig.Wrap(fmt.Errorf("connection pool size must be positive"))
	}

	return nil
}
