package task

type funcRunner struct {
	run func() error
}

func (r funcRunner) Run() error {
	return r.run()
}

// RunnerFunc adapts a plain function to the Runner interface.
func RunnerFunc(run func() error) Runner {
	return funcRunner{run: run}
}
