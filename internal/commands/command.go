package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeNew      Type = "new"
	TypeDuration Type = "duration"
	TypeDeadline Type = "deadline"
	TypeStart    Type = "start"
	TypeFinish   Type = "finish"
	TypeExtend   Type = "extend"
	TypeDelete   Type = "delete"
	TypeList     Type = "list"
	TypeTasks    Type = "tasks"
	TypeHistory  Type = "history"
	TypeFrog     Type = "frog"
	TypeHelp     Type = "help"
	TypeCancel   Type = "cancel"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeNotACommand     ErrorCode = "not_a_command"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DeadlineLayouts are accepted in order; seconds are optional.
var DeadlineLayouts = []string{"2006-01-02 15:04:05", "2006-01-02 15:04"}

type NewArgs struct {
	Name string
}

type DurationArgs struct {
	ID    int
	Hours int
}

type DeadlineArgs struct {
	ID int
	At time.Time
}

type TaskArgs struct {
	ID int
}

type ListArgs struct {
	ByDeadline bool
}

type Command struct {
	Type     Type
	Raw      string
	New      *NewArgs
	Duration *DurationArgs
	Deadline *DeadlineArgs
	Task     *TaskArgs
	List     *ListArgs
}

// IsCommand reports whether input is addressed as a slash command rather than free text.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if !strings.HasPrefix(raw, "/") {
		return Command{}, &CommandError{Code: ErrCodeNotACommand, Message: "commands start with /"}
	}
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeNew:
		return parseNew(input, args)
	case TypeDuration:
		return parseDuration(input, args)
	case TypeDeadline:
		return parseDeadline(input, args)
	case TypeStart, TypeFinish, TypeExtend, TypeDelete:
		return parseTask(input, Type(head), args)
	case TypeList:
		return parseList(input, args)
	case TypeTasks, TypeHistory, TypeFrog, TypeHelp, TypeCancel:
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseNew(raw string, args []string) (Command, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	return Command{Type: TypeNew, Raw: raw, New: &NewArgs{Name: name}}, nil
}

func parseDuration(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "duration requires a task id and a number of hours"}
	}
	id, err := ParseID(args[0])
	if err != nil {
		return Command{}, err
	}
	hours, err := ParseHours(args[1])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDuration, Raw: raw, Duration: &DurationArgs{ID: id, Hours: hours}}, nil
}

func parseDeadline(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "deadline requires a task id and a date like 2026-01-09 23:59"}
	}
	id, err := ParseID(args[0])
	if err != nil {
		return Command{}, err
	}
	at, err := ParseDeadline(strings.Join(args[1:], " "), time.Local)
	if err != nil {
		return Command{}, err
	}
	return Command{Type: TypeDeadline, Raw: raw, Deadline: &DeadlineArgs{ID: id, At: at}}, nil
}

func parseTask(raw string, typ Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a task id", typ)}
	}
	id, err := ParseID(args[0])
	if err != nil {
		return Command{}, err
	}
	return Command{Type: typ, Raw: raw, Task: &TaskArgs{ID: id}}, nil
}

func parseList(raw string, args []string) (Command, error) {
	byDeadline := false
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "deadline", "by-deadline":
			byDeadline = true
		case "all":
			byDeadline = false
		default:
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown list option: %s", arg)}
		}
	}
	return Command{Type: TypeList, Raw: raw, List: &ListArgs{ByDeadline: byDeadline}}, nil
}

// ParseID accepts "3" or "#3".
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || id <= 0 {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid task id: %q", s)}
	}
	return id, nil
}

// ParseHours reads a whole number of hours; range checks belong to the model.
func ParseHours(s string) (int, error) {
	hours, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("duration must be a whole number of hours, got %q", s)}
	}
	return hours, nil
}

func ParseDeadline(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DeadlineLayouts {
		if at, err := time.ParseInLocation(layout, s, loc); err == nil {
			return at, nil
		}
	}
	return time.Time{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("deadline must look like 2026-01-09 23:59, got %q", s)}
}
