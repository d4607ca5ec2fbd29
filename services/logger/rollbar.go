package logsvc

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/onestop/core"
	"github.com/trezcool/onestop/core/user"
)

// RollbarLogger writes every entry to a std logger and reports it to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger

	// the Rollbar person is process-wide: setting it and reporting must not interleave
	reportMu *sync.Mutex
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Address)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, reportMu: new(sync.Mutex)}
}

// Enable turns reporting on; reports are only sent when a token is configured.
func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled && rollbar.Token() != "")
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.Debug, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.Info, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.Warning, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.Error, msg, args) }

// Fatal reports msg, waits for pending reports to be sent and exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.Critical, msg, args)
	rollbar.Wait()
	os.Exit(1)
}

func (l *RollbarLogger) log(report func(...interface{}), msg string, args []interface{}) {
	data, person := splitPerson(args)
	l.std.Println(formatEntry(msg, data, person))

	l.reportMu.Lock()
	defer l.reportMu.Unlock()
	if person != nil {
		rollbar.SetPerson(strconv.FormatInt(person.ID, 10), person.Name, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(append([]interface{}{msg}, data...)...)
}

// splitPerson pulls the first user.Identity out of args: it is reported as the Rollbar person.
// Errors and extra-data maps are passed through.
func splitPerson(args []interface{}) (data []interface{}, person *user.Identity) {
	data = make([]interface{}, 0, len(args))
	for _, arg := range args {
		id, ok := arg.(user.Identity)
		if !ok {
			data = append(data, arg)
			continue
		}
		if person == nil {
			person = &id
		}
	}
	return data, person
}

func formatEntry(msg string, data []interface{}, person *user.Identity) string {
	var b strings.Builder
	b.WriteString(msg)
	for _, d := range data {
		fmt.Fprintf(&b, "\n\t%+v", d)
	}
	if person != nil {
		fmt.Fprintf(&b, "\n\tuser: %d <%s> (%s)", person.ID, person.Email, person.Role)
	}
	return b.String()
}
