// Command server runs the payment routing gateway: the HTTP API, the
// outbox relay, the metrics stream consumer, and the verification
// worker, wired together with go.uber.org/fx.
package main

import (
	"go.uber.org/fx"

	"github.com/marlonbarreto-git/nimbus-payment-gateway/internal/fxmodules"
)

func main() {
	fx.New(
		fxmodules.CoreModules,
		fxmodules.ApplicationModules,
	).Run()
}
