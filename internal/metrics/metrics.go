// Package metrics mantém contadores atômicos de execução para o sender e
// o receiver, lidos de forma segura por qualquer goroutine observadora
// enquanto a transferência está em andamento.
package metrics

import "sync/atomic"

// SenderMetrics agrega contadores de uma transferência do lado do sender.
type SenderMetrics struct {
	SegmentsSent    uint64
	BytesSent       uint64
	Retransmissions uint64
	TimeoutCount    uint64
	AcksReceived    uint64
}

// AddSegmentSent registra o envio inicial de um segmento de b bytes de payload.
func (m *SenderMetrics) AddSegmentSent(b int) {
	atomic.AddUint64(&m.SegmentsSent, 1)
	atomic.AddUint64(&m.BytesSent, uint64(b))
}

// AddRetransmission registra uma retransmissão (não conta como envio inicial).
func (m *SenderMetrics) AddRetransmission() { atomic.AddUint64(&m.Retransmissions, 1) }

// AddTimeout registra um disparo do temporizador de retransmissão.
func (m *SenderMetrics) AddTimeout() { atomic.AddUint64(&m.TimeoutCount, 1) }

// AddAck registra o recebimento de uma confirmação, cumulativa ou não.
func (m *SenderMetrics) AddAck() { atomic.AddUint64(&m.AcksReceived, 1) }

// Snapshot retorna uma cópia consistente dos contadores atuais.
func (m *SenderMetrics) Snapshot() SenderMetrics {
	return SenderMetrics{
		SegmentsSent:    atomic.LoadUint64(&m.SegmentsSent),
		BytesSent:       atomic.LoadUint64(&m.BytesSent),
		Retransmissions: atomic.LoadUint64(&m.Retransmissions),
		TimeoutCount:    atomic.LoadUint64(&m.TimeoutCount),
		AcksReceived:    atomic.LoadUint64(&m.AcksReceived),
	}
}

// ReceiverMetrics agrega contadores de uma transferência do lado do receiver.
type ReceiverMetrics struct {
	SegmentsDelivered    uint64
	BytesDelivered       uint64
	DroppedMalformed     uint64
	DroppedSimulatedLoss uint64
	DroppedChecksum      uint64
	DroppedOutOfSequence uint64
	AcksSent             uint64
}

// AddDelivered registra a entrega em ordem de um segmento de b bytes.
func (m *ReceiverMetrics) AddDelivered(b int) {
	atomic.AddUint64(&m.SegmentsDelivered, 1)
	atomic.AddUint64(&m.BytesDelivered, uint64(b))
}

// AddDroppedMalformed registra o descarte de um datagrama curto ou de tipo diferente de DATA.
func (m *ReceiverMetrics) AddDroppedMalformed() { atomic.AddUint64(&m.DroppedMalformed, 1) }

// AddDroppedSimulatedLoss registra o descarte decidido pelo serviço de perda simulada.
func (m *ReceiverMetrics) AddDroppedSimulatedLoss() { atomic.AddUint64(&m.DroppedSimulatedLoss, 1) }

// AddDroppedChecksum registra o descarte por checksum inválido.
func (m *ReceiverMetrics) AddDroppedChecksum() { atomic.AddUint64(&m.DroppedChecksum, 1) }

// AddDroppedOutOfSequence registra o descarte de um segmento fora de ordem.
func (m *ReceiverMetrics) AddDroppedOutOfSequence() { atomic.AddUint64(&m.DroppedOutOfSequence, 1) }

// AddAckSent registra o envio de uma confirmação cumulativa.
func (m *ReceiverMetrics) AddAckSent() { atomic.AddUint64(&m.AcksSent, 1) }

// Snapshot retorna uma cópia consistente dos contadores atuais.
func (m *ReceiverMetrics) Snapshot() ReceiverMetrics {
	return ReceiverMetrics{
		SegmentsDelivered:    atomic.LoadUint64(&m.SegmentsDelivered),
		BytesDelivered:       atomic.LoadUint64(&m.BytesDelivered),
		DroppedMalformed:     atomic.LoadUint64(&m.DroppedMalformed),
		DroppedSimulatedLoss: atomic.LoadUint64(&m.DroppedSimulatedLoss),
		DroppedChecksum:      atomic.LoadUint64(&m.DroppedChecksum),
		DroppedOutOfSequence: atomic.LoadUint64(&m.DroppedOutOfSequence),
		AcksSent:             atomic.LoadUint64(&m.AcksSent),
	}
}
