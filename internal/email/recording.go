package email

import "sync"

// RecordingSender guarda los mensajes en memoria en lugar de enviarlos.
// Se usa en tests y en despliegues dev sin SMTP configurado.
type RecordingSender struct {
	mu       sync.Mutex
	messages []Message
}

func (r *RecordingSender) Send(m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

// Messages retorna una copia de lo enviado hasta ahora.
func (r *RecordingSender) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Reset descarta los mensajes acumulados.
func (r *RecordingSender) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
