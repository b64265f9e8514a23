package client

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/davidkna/tftp/pkg/types"
)

var (
	getRegex     = "^get\\s+(\\S+)$"
	putRegex     = "^put\\s+(\\S+)$"
	modeRegex    = "^mode\\s+(\\S+)$"
	blksizeRegex = "^blksize\\s+(\\d+)$"
	timeoutRegex = "^timeout\\s+(\\d+)$"
	rexmtRegex   = "^rexmt\\s+(\\d+)$"
	connectRegex = "^connect\\s+(\\S+)\\s+(\\S+)$"
	traceRegex   = "^trace$"
	quitRegex    = "^quit$"
	helpRegex    = "^help$"
)

type Evaluator struct {
	l             *zap.SugaredLogger
	client        Connector
	regexPatterns map[string]*regexp.Regexp
	line          string
	mode          types.Mode
}

func NewEvaluator(l *zap.SugaredLogger, client Connector) *Evaluator {
	e := &Evaluator{
		l:      l,
		client: client,
		mode:   types.ModeNetAscii,
	}

	e.regexPatterns = make(map[string]*regexp.Regexp)

	e.regexPatterns["get"] = regexp.MustCompile(getRegex)
	e.regexPatterns["put"] = regexp.MustCompile(putRegex)
	e.regexPatterns["mode"] = regexp.MustCompile(modeRegex)
	e.regexPatterns["blksize"] = regexp.MustCompile(blksizeRegex)
	e.regexPatterns["timeout"] = regexp.MustCompile(timeoutRegex)
	e.regexPatterns["rexmt"] = regexp.MustCompile(rexmtRegex)
	e.regexPatterns["connect"] = regexp.MustCompile(connectRegex)
	e.regexPatterns["trace"] = regexp.MustCompile(traceRegex)
	e.regexPatterns["quit"] = regexp.MustCompile(quitRegex)
	e.regexPatterns["help"] = regexp.MustCompile(helpRegex)

	return e
}

func (e *Evaluator) evaluate() (bool, error) {
	e.line = strings.TrimSpace(e.line)

	if matches := e.regexPatterns["get"].FindStringSubmatch(e.line); len(matches) == 2 {
		return false, e.get(matches[1])
	}

	if matches := e.regexPatterns["put"].FindStringSubmatch(e.line); len(matches) == 2 {
		return false, e.put(matches[1])
	}

	if matches := e.regexPatterns["mode"].FindStringSubmatch(e.line); len(matches) == 2 {
		m, err := types.ParseMode(matches[1])
		if err != nil {
			return false, err
		}

		e.mode = m

		return false, nil
	}

	if matches := e.regexPatterns["blksize"].FindStringSubmatch(e.line); len(matches) == 2 {
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return false, fmt.Errorf("blksize value can not be parsed: %w", err)
		}

		return false, e.client.SetBlockSize(n)
	}

	if matches := e.regexPatterns["timeout"].FindStringSubmatch(e.line); len(matches) == 2 {
		n, err := strconv.ParseUint(matches[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("timeout value can not be parsed: %w", err)
		}

		e.client.SetTimeout(uint(n))

		return false, nil
	}

	if matches := e.regexPatterns["rexmt"].FindStringSubmatch(e.line); len(matches) == 2 {
		n, err := strconv.ParseUint(matches[1], 10, 32)
		if err != nil {
			return false, fmt.Errorf("rexmt value can not be parsed: %w", err)
		}

		e.client.SetRetries(uint(n))

		return false, nil
	}

	if matches := e.regexPatterns["connect"].FindStringSubmatch(e.line); len(matches) == 3 {
		return false, e.client.Connect(fmt.Sprintf("%s:%s", matches[1], matches[2]))
	}

	if matches := e.regexPatterns["trace"].FindStringSubmatch(e.line); len(matches) == 1 {
		e.client.SetTrace()

		return false, nil
	}

	if matches := e.regexPatterns["help"].FindStringSubmatch(e.line); len(matches) == 1 {
		fmt.Println(`Commands:
	connect <host> <port>
	get <file>
	put <file>
	mode <netascii|octet>
	blksize <integer>
	timeout <integer>
	rexmt <integer>
	trace
	quit`)

		return false, nil
	}

	if matches := e.regexPatterns["quit"].FindStringSubmatch(e.line); len(matches) == 1 {
		return true, nil
	}

	return false, fmt.Errorf("unknown command: %s", e.line)
}

func (e *Evaluator) get(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}

	if err := e.client.Get(context.Background(), filename, e.mode, f); err != nil {
		return multierr.Append(err, f.Close())
	}

	return f.Close()
}

func (e *Evaluator) put(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "open %s", filename)
	}

	if err := e.client.Put(context.Background(), filename, e.mode, f); err != nil {
		return multierr.Append(err, f.Close())
	}

	return f.Close()
}
