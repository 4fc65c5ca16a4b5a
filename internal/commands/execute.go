package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	New      func(NewArgs) (Result, error)
	Duration func(DurationArgs) (Result, error)
	Deadline func(DeadlineArgs) (Result, error)
	Start    func(TaskArgs) (Result, error)
	Finish   func(TaskArgs) (Result, error)
	Extend   func(TaskArgs) (Result, error)
	Delete   func(TaskArgs) (Result, error)
	List     func(ListArgs) (Result, error)
	Simple   map[Type]func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeNew:
		if handlers.New == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.New(*cmd.New)
	case TypeDuration:
		if handlers.Duration == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Duration(*cmd.Duration)
	case TypeDeadline:
		if handlers.Deadline == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Deadline(*cmd.Deadline)
	case TypeStart, TypeFinish, TypeExtend, TypeDelete:
		h := taskHandler(cmd.Type, handlers)
		if h == nil {
			return Result{}, missing(cmd.Type)
		}
		return h(*cmd.Task)
	case TypeList:
		if handlers.List == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.List(*cmd.List)
	case TypeTasks, TypeHistory, TypeFrog, TypeHelp, TypeCancel:
		h := handlers.Simple[cmd.Type]
		if h == nil {
			return Result{}, missing(cmd.Type)
		}
		return h()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func taskHandler(t Type, handlers Handlers) func(TaskArgs) (Result, error) {
	switch t {
	case TypeStart:
		return handlers.Start
	case TypeFinish:
		return handlers.Finish
	case TypeExtend:
		return handlers.Extend
	case TypeDelete:
		return handlers.Delete
	default:
		return nil
	}
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
