package pipeline

import "github.com/checkpipe/checkpipe/internal/model"

// Task constructors. Argv entries are templates expanded by the runner; the
// actual lint/type-check/test tools are opaque subprocesses.

func lintTask() model.Task {
	return model.Task{
		Name:       "lint",
		Argv:       []string{"{python}", "-m", "pylint", "{ignore}", "{flags}", "{targets}"},
		IgnoreFlag: "--ignore=",
		Fatal:      true,
	}
}

func typecheckTask() model.Task {
	return model.Task{
		Name:  "typecheck",
		Argv:  []string{"{python}", "-m", "mypy", "{flags}", "{targets}"},
		Fatal: true,
	}
}

// testTask builds the pytest invocation. Coverage collection is always on;
// whether the gate is applied is the caller's decision. failedOnly restricts
// the run to previously failed cases.
func testTask(failedOnly bool) model.Task {
	argv := []string{
		"{python}", "-m", "pytest",
		"--cov={package}",
		"--cov-report=term",
		"--cov-report=json",
	}
	if failedOnly {
		argv = append(argv, "--last-failed")
	}
	argv = append(argv, "{flags}", "{targets}")
	return model.Task{
		Name:     "test",
		Argv:     argv,
		Fatal:    true,
		Coverage: true,
	}
}

func reqsTask() model.Task {
	return model.Task{
		Name:  "reqs",
		Argv:  []string{"{python}", "-m", "pip", "install", "-r", "requirements.txt"},
		Fatal: true,
	}
}

// publishTask packages and uploads in one step so no shell globbing is
// needed for the built artifact.
func publishTask() model.Task {
	return model.Task{
		Name:  "publish",
		Argv:  []string{"{python}", "setup.py", "sdist", "upload", "{flags}"},
		Fatal: true,
	}
}

// Pipelines returns the static pipeline table. Tasks run strictly in
// declaration order; there is no implicit reordering or parallelism.
func Pipelines() map[string][]model.Task {
	return map[string][]model.Task{
		"lint":       {lintTask()},
		"typecheck":  {typecheckTask()},
		"test":       {testTask(false)},
		"test_fails": {testTask(true)},
		"check":      {lintTask(), typecheckTask(), testTask(false)},
		"reqs":       {reqsTask()},
		"publish":    {publishTask()},
	}
}
