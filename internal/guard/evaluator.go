package guard

import (
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/script"
)

// Evaluator decides whether a resource should run, per spec.md §4.5.
type Evaluator struct {
	Host script.Host
}

// New constructs an Evaluator bound to the given script host, used to
// invoke any host-callable guard.
func New(host script.Host) *Evaluator {
	return &Evaluator{Host: host}
}

// ShouldRun implements the exact algorithm of spec.md §4.5: only_if
// before not_if, short-circuiting on the first skip, shell form taking
// priority within a single slot. A non-nil error means the resource's
// apply stage was never reached and is treated as an apply failure
// (spec.md §4.7 step 3).
func (e *Evaluator) ShouldRun(onlyIf, notIf *Guard, id Identity) (Decision, error) {
	if onlyIf != nil && onlyIf.Form != FormNone {
		truthy, err := e.eval(onlyIf, id)
		if err != nil {
			return Decision{}, err
		}
		if !truthy {
			return Skip("skipped due to only_if"), nil
		}
	}
	if notIf != nil && notIf.Form != FormNone {
		truthy, err := e.eval(notIf, id)
		if err != nil {
			return Decision{}, err
		}
		if truthy {
			return Skip("skipped due to not_if"), nil
		}
	}
	return Run, nil
}

func (e *Evaluator) eval(g *Guard, id Identity) (bool, error) {
	if g.Shell != "" {
		return e.evalShell(g.Shell, id)
	}
	switch g.Form {
	case FormShell:
		return e.evalShell(g.Shell, id)
	case FormCallable:
		return e.evalCallable(g.Callable)
	default:
		return true, nil
	}
}

func (e *Evaluator) evalCallable(handle script.CallableHandle) (bool, error) {
	res, err := e.Host.InvokeCallable(handle)
	if err != nil {
		return false, kernelerr.Wrap(kernelerr.KindGuardIOError, "invoking guard callable", err)
	}
	if res.Threw {
		return false, kernelerr.New(kernelerr.KindHostException, res.ThrewReason)
	}
	return res.Truthy, nil
}

func (e *Evaluator) evalShell(command string, id Identity) (bool, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Env = nil // inherit env (nil means os.Environ() is used by os/exec)
	cmd.Stdout = nil
	cmd.Stderr = nil

	cred, err := resolveCredential(id)
	if err != nil {
		return false, err
	}
	if cred != nil {
		if cmd.SysProcAttr == nil {
			cmd.SysProcAttr = &syscall.SysProcAttr{}
		}
		cmd.SysProcAttr.Credential = cred
	}

	runErr := cmd.Run()
	if runErr == nil {
		return true, nil
	}
	if _, ok := runErr.(*exec.ExitError); ok {
		// Non-zero exit is a normal "falsy" result, not a spawn failure.
		return false, nil
	}
	return false, kernelerr.Wrap(kernelerr.KindGuardIOError, "spawning guard command", runErr)
}

// resolveCredential resolves id.User/id.Group via getpwnam/getgrnam. A
// group overrides the user's default GID, per spec.md §4.5 step 1.
func resolveCredential(id Identity) (*syscall.Credential, error) {
	if id.User == "" && id.Group == "" {
		return nil, nil
	}

	var uid, gid uint32
	if id.User != "" {
		u, err := user.Lookup(id.User)
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindGuardIOError, "resolving user "+id.User, err)
		}
		n, err := strconv.ParseUint(u.Uid, 10, 32)
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindGuardIOError, "parsing uid for "+id.User, err)
		}
		uid = uint32(n)
		gn, err := strconv.ParseUint(u.Gid, 10, 32)
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindGuardIOError, "parsing default gid for "+id.User, err)
		}
		gid = uint32(gn)
	}
	if id.Group != "" {
		g, err := user.LookupGroup(id.Group)
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindGuardIOError, "resolving group "+id.Group, err)
		}
		n, err := strconv.ParseUint(g.Gid, 10, 32)
		if err != nil {
			return nil, kernelerr.Wrap(kernelerr.KindGuardIOError, "parsing gid for "+id.Group, err)
		}
		gid = uint32(n)
	}
	return &syscall.Credential{Uid: uid, Gid: gid}, nil
}
