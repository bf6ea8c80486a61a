package depthcloud

type Commands struct {
	app *App
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

// Exit stops the App after the current frame.
func (cmd *Commands) Exit() {
	cmd.app.stop()
}

// OnExit registers a hook run once when the App stops. Hooks run in
// reverse order of registration.
func (cmd *Commands) OnExit(hook func()) *Commands {
	cmd.app.onExit = append(cmd.app.onExit, hook)
	return cmd
}

func (cmd *Commands) Frame() uint64 {
	return cmd.app.frame
}
