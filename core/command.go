package core

import (
	"errors"
	"io"
	"sync"
)

var (
	// ErrDuplicateCommand is returned when a name is registered twice
	ErrDuplicateCommand = errors.New("command already registered")
	// ErrRegistryFrozen is returned when registering after the shell started
	ErrRegistryFrozen = errors.New("command registry is frozen")
)

// CommandHandler handles one shell command. args excludes the command
// name. Output goes to w; a returned error is reported on w by the shell.
type CommandHandler func(w io.Writer, args []string) error

// Command represents a shell command
type Command struct {
	Name    string
	Handler CommandHandler
	Help    string // One-line description for the help listing
	Usage   string // Usage string shown by "help <name>"
}

// CommandRegistry holds all registered commands in registration order
type CommandRegistry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]*Command
	frozen   bool
}

var globalRegistry = NewCommandRegistry()

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		byName: make(map[string]*Command),
	}
}

// RegisterCommand registers a command with the global registry, typically
// from a platform package's init. Firmware built afterwards serves it next
// to the built-ins. It panics on a duplicate name or a frozen registry,
// both of which are start-up programming errors.
func RegisterCommand(name string, handler CommandHandler, help, usage string) {
	err := globalRegistry.Register(Command{Name: name, Handler: handler, Help: help, Usage: usage})
	if err != nil {
		panic("register " + name + ": " + err.Error())
	}
}

// Register adds a command to the registry
func (r *CommandRegistry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.byName[cmd.Name]; exists {
		return ErrDuplicateCommand
	}

	c := cmd
	r.commands = append(r.commands, &c)
	r.byName[c.Name] = &c
	return nil
}

// Freeze makes the registry immutable
func (r *CommandRegistry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Lookup retrieves a command by exact name
func (r *CommandRegistry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Commands returns the registered commands in registration order
func (r *CommandRegistry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Command(nil), r.commands...)
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
