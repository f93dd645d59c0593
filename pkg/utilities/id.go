package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID generates a snowflake ID string. The node is created once
// from SNOWFLAKE_NODE (default 1) so the sequence counter is shared across
// calls; if the node cannot be created a KSUID is returned instead.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		nodeID, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64)
		if err != nil {
			nodeID = 1
		}
		node, _ = snowflake.NewNode(nodeID)
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}

// NewSnowflakeIDWithNode generates a snowflake ID string using the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
func NewSnowflakeIDWithNode(nodeID int64) string {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	return n.Generate().String()
}
