// Package autoload configures the global logger from LOG_* environment
// variables. Blank-import it for the side effect.
package autoload

import (
	configx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/config"
	logx "github.com/tanpawarit/Mediva-Agentic-Appointment-Booking/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("LOG")
	logx.Init(*conf)
}
