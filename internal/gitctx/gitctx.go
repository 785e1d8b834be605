// Package gitctx describes who and what triggered a maintenance run.
package gitctx

import (
	"os"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// ManualActor is reported when no CI or git identity is available.
const ManualActor = "manual"

// RunContext captures the trigger of a run for the report header.
type RunContext struct {
	Actor  string `json:"actor"`
	Branch string `json:"branch,omitempty"`
	SHA    string `json:"sha,omitempty"`
	CI     bool   `json:"ci"`
}

// ShortSHA returns the first 7 characters of SHA.
func (c RunContext) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// Collect gathers the run context for the repo containing target. It never
// fails: missing repositories and identities fall back to empty fields.
// Actor precedence: GITHUB_ACTOR, git user.name, $USER, "manual".
func Collect(target string) RunContext {
	ctx := RunContext{CI: os.Getenv("GITHUB_ACTIONS") == "true"}

	var userName string
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		if head, err := repo.Head(); err == nil {
			if head.Name().IsBranch() {
				ctx.Branch = head.Name().Short()
			}
			ctx.SHA = head.Hash().String()
		}
		if cfg, err := repo.ConfigScoped(config.GlobalScope); err == nil {
			userName = cfg.User.Name
		}
	}
	if ctx.Branch == "" {
		ctx.Branch = os.Getenv("GITHUB_REF_NAME")
	}
	if ctx.SHA == "" {
		ctx.SHA = os.Getenv("GITHUB_SHA")
	}

	ctx.Actor = firstNonEmpty(os.Getenv("GITHUB_ACTOR"), userName, os.Getenv("USER"), ManualActor)
	return ctx
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
