package session

import "sync"

// MemoryJar is a process-local Jar, used by tests and one-shot commands
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[string]string
}

// NewMemoryJar returns an empty jar
func NewMemoryJar() *MemoryJar {
	return &MemoryJar{cookies: make(map[string]string)}
}

func (j *MemoryJar) Get(name, path string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.cookies[path+"\x00"+name]
	if !ok {
		return "", ErrNoCookie
	}
	return v, nil
}

func (j *MemoryJar) Set(name, path, value string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[path+"\x00"+name] = value
	return nil
}

func (j *MemoryJar) Remove(name, path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, path+"\x00"+name)
	return nil
}
