package mqttbridge

import "go.uber.org/fx"

var Module = fx.Module("mqttbridge",
	fx.Provide(New),
	fx.Invoke(func(*Bridge) {}),
)
