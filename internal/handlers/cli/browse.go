package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/txpager/internal/pagination"
	"github.com/gabapcia/txpager/internal/pkg/logger"
	"github.com/gabapcia/txpager/internal/pkg/x/chflow"
)

const browsePrompt = "[n]ext [p]rev [f]irst [l]ast <page> [r]etry [q]uit > "

func (a *app) browseCommand() *cli.Command {
	return &cli.Command{
		Name:        "browse",
		Description: "Page interactively through an address or block listing.",
		Usage:       "txpager browse (--address 0x... [--filter to|from] | --block N|0xHASH|latest) [--page N]",
		Flags:       []cli.Flag{addressFlag(false), filterFlag(), blockFlag(false), pageFlag()},
		Action:      a.browse,
	}
}

// readLines forwards input lines until r is exhausted or ctx ends.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if !chflow.Send(ctx, lines, strings.TrimSpace(scanner.Text())) {
				return
			}
		}
	}()

	return lines
}

type browseAction int

const (
	actionNone browseAction = iota
	actionLoad
	actionRetry
	actionQuit
)

// parseInput maps an input line to what the pager does next, relative to
// the page currently shown.
func parseInput(input string, current pagination.ResultPage) (browseAction, int, error) {
	switch strings.ToLower(input) {
	case "q", "quit":
		return actionQuit, 0, nil
	case "r", "retry":
		return actionRetry, 0, nil
	case "f", "first":
		return actionLoad, 1, nil
	case "l", "last":
		return actionLoad, max(current.TotalPages, 1), nil
	case "n", "next", "":
		if current.Page > 0 && !current.HasNext() {
			return actionNone, 0, errors.New("already on the last page")
		}
		return actionLoad, current.Page + 1, nil
	case "p", "prev":
		if current.Page <= 1 {
			return actionNone, 0, errors.New("already on the first page")
		}
		return actionLoad, current.Page - 1, nil
	}

	page, err := parsePage(input)
	if err != nil {
		return actionNone, 0, err
	}
	return actionLoad, page, nil
}

func (a *app) browse(ctx context.Context, c *cli.Command) error {
	if err := a.selectNetwork(c); err != nil {
		return err
	}

	page, err := parsePage(c.String("page"))
	if err != nil {
		return err
	}

	key, err := a.entityKey(ctx, c)
	if err != nil {
		return err
	}

	view, err := a.session.Open(key)
	if err != nil {
		return err
	}
	defer view.Close()

	ctx = logger.Derive(ctx, "entity", key.String())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, a.in)

	state, err := view.Load(ctx, page)
	a.show(ctx, state, err)

	for {
		a.printf("%s", browsePrompt)

		input, ok := chflow.Receive(ctx, lines)
		if !ok {
			a.printf("\n")
			return nil
		}

		action, target, err := parseInput(input, view.State().Result)
		if err != nil {
			a.printf("%s", renderError(err))
			continue
		}

		switch action {
		case actionQuit:
			return nil
		case actionRetry:
			state, err = view.Retry(ctx)
		case actionLoad:
			state, err = view.Load(ctx, target)
		default:
			continue
		}
		a.show(ctx, state, err)
	}
}

func (a *app) show(ctx context.Context, state pagination.ViewState, err error) {
	if err != nil {
		logger.Warn(ctx, "page load failed", "page", state.Requested, "error", err)
		a.printf("%s", renderError(fmt.Errorf("%w (type r to retry)", err)))
		return
	}

	a.printf("%s", renderPage(state.Result))
}
