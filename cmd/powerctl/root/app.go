package root

import "powertrack/internal/app/bootstrap"

// openApp is swapped in tests for an in-memory module.
var openApp = func() (*bootstrap.Resources, func(), error) {
	resources, err := bootstrap.Build("powerctl")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = resources.Close()
	}
	return resources, cleanup, nil
}
