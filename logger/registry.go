package logger

import "sync"

// named maps component names to loggers installed with Register.
var named sync.Map

// Register makes Get(name) return l until Unregister(name). Tests use it
// to capture the output of a package that logs through Get.
func Register(name string, l *Logger) {
	named.Store(name, l)
}

// Unregister drops the logger registered under name.
func Unregister(name string) {
	named.Delete(name)
}

// Get returns the logger registered under name, or the global logger
// tagged with component=name.
func Get(name string) *Logger {
	if l, ok := named.Load(name); ok {
		return l.(*Logger)
	}
	return WithComponent(name)
}
