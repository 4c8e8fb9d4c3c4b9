package views

import (
	"github.com/ramborogers/hostaddr/ifaces"
)

// Snapshot is everything the screens show about one query
type Snapshot struct {
	Result ifaces.Result
	// GatewayInterface is empty when no interface reaches the gateway
	GatewayInterface string
	Gateway          string
	Version          string
}
