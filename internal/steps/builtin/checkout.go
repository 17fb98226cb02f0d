package builtin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gradepipe/internal/steps"
)

// CheckoutStep materializes repository contents into the working
// directory. When the directory already holds files (the common local
// case, and the CI case where the runner starts inside the repo) it is
// used as-is; otherwise the repository from the trigger event is cloned.
type CheckoutStep struct{}

func (s *CheckoutStep) Slug() string { return "checkout" }

func (s *CheckoutStep) Title() string { return "Checkout Repository" }

func (s *CheckoutStep) Description() string {
	return "Makes repository contents available to subsequent steps, cloning if the working directory is empty."
}

func (s *CheckoutStep) Settings() []steps.Setting {
	return []steps.Setting{
		{Name: "repository", Description: "OWNER/REPO to clone when the working directory is empty", Default: "the trigger event's repository"},
		{Name: "ref", Description: "Commit or ref to check out after cloning", Default: "the trigger event's head SHA"},
	}
}

func (s *CheckoutStep) Run(ctx context.Context, rc *steps.RunContext) (steps.Result, error) {
	populated, err := dirPopulated(rc.Workdir)
	if err != nil {
		return steps.ErrorResult(fmt.Sprintf("inspect working directory: %v", err)), nil
	}
	if populated {
		return steps.SuccessResult("using existing working tree"), nil
	}

	repo := rc.Setting("repository", rc.Event.Repo)
	if strings.TrimSpace(repo) == "" {
		return steps.ErrorResult("working directory is empty and no repository is known to clone"), nil
	}

	cloneURL := fmt.Sprintf("https://github.com/%s.git", repo)
	if out, err := git(ctx, "", "clone", "--quiet", cloneURL, rc.Workdir); err != nil {
		return steps.ErrorResult(fmt.Sprintf("clone %s: %v\n%s", repo, err, out)), nil
	}

	ref := rc.Setting("ref", rc.Event.HeadSHA)
	if ref != "" {
		if out, err := git(ctx, rc.Workdir, "checkout", "--quiet", ref); err != nil {
			return steps.ErrorResult(fmt.Sprintf("checkout %s: %v\n%s", ref, err, out)), nil
		}
	}

	return steps.SuccessResult(fmt.Sprintf("cloned %s", repo)), nil
}

func dirPopulated(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

func init() {
	steps.Register(&CheckoutStep{})
}
