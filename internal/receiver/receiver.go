// Package receiver implementa o lado receptor do protocolo Go-Back-N: um
// laço de recepção bloqueante com prazo fixo, um serviço de perda simulada
// consultado depois da validação do cabeçalho e antes das verificações de
// checksum e de sequência, aceitação estrita em
// ordem com confirmação cumulativa, e um encerramento automático por
// ociosidade quando não há mais sinal de que o emissor continue enviando.
package receiver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"

	"gbnftp/internal/logger"
	"gbnftp/internal/metrics"
	"gbnftp/internal/protocol"
)

// Conn é o subconjunto de *net.UDPConn usado pelo laço de recepção.
type Conn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
	SetReadDeadline(t time.Time) error
}

// maxDatagram é o tamanho do buffer de recepção; maior que qualquer MSS
// razoável, para nunca truncar um segmento DATA válido.
const maxDatagram = 65536

// Config parametriza uma execução do laço de recepção.
type Config struct {
	LossProbability float64
	Timeout         time.Duration // prazo de cada recepção bloqueante (normalmente 1s)
	IdleShutdown    time.Duration // tempo sem receber nada após o primeiro pacote até encerrar sozinho
}

// Run executa o laço de recepção até que o contexto seja cancelado
// (interrupção) ou ocorra uma falha fatal de E/S — o protocolo não tem um
// sinal explícito de fim de arquivo, então o encerramento por conclusão é
// sempre o heurístico de ociosidade. sink recebe os bytes entregues em
// ordem; rng decide a perda simulada (injetado para tornar o teste
// determinístico).
func Run(ctx context.Context, conn Conn, sink *bufio.Writer, cfg Config, log logger.Logger, m *metrics.ReceiverMetrics, rng *rand.Rand) error {
	var expectedSeq uint32
	var receivedAny bool
	var lastPacket time.Time

	buf := make([]byte, maxDatagram)

	for {
		select {
		case <-ctx.Done():
			sink.Flush()
			return nil
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(cfg.Timeout)); err != nil {
			return fmt.Errorf("receiver: falha ao definir prazo de leitura: %w", err)
		}
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				sink.Flush()
				if receivedAny && time.Since(lastPacket) > cfg.IdleShutdown {
					return nil
				}
				continue
			}
			return fmt.Errorf("receiver: falha ao receber datagrama: %w", err)
		}

		h, payload, derr := protocol.Decode(buf[:n])
		if derr != nil || h.Type != protocol.TypeData {
			// Cabeçalho curto demais ou tipo diferente de DATA: descartado sem
			// marcar atividade, tal como um datagrama que nunca chegou.
			m.AddDroppedMalformed()
			continue
		}

		receivedAny = true
		lastPacket = time.Now()

		// Serviço de perda simulada: avaliado antes de qualquer validação
		// de checksum ou de número de sequência. Comportamento observado
		// preservado de propósito — um segmento corrompido que também é
		// sorteado como perdido é contabilizado como perda, não como
		// falha de checksum.
		if cfg.LossProbability > 0 && rng.Float64() < cfg.LossProbability {
			log.Info("Packet loss, sequence number = %d", h.Seq)
			m.AddDroppedSimulatedLoss()
			continue
		}

		if h.Seq == expectedSeq && protocol.Checksum(payload) == h.Checksum {
			if _, err := sink.Write(payload); err != nil {
				return fmt.Errorf("receiver: falha ao gravar no destino: %w", err)
			}
			m.AddDelivered(len(payload))

			if _, err := conn.WriteToUDP(protocol.EncodeAck(expectedSeq), addr); err == nil {
				m.AddAckSent()
			}
			expectedSeq++
			continue
		}

		// Fora de ordem ou checksum incorreto: Go-Back-N descarta
		// silenciosamente, sem enviar confirmação. O emissor retransmite
		// ao expirar o temporizador.
		if h.Seq != expectedSeq {
			m.AddDroppedOutOfSequence()
		} else {
			m.AddDroppedChecksum()
		}
	}
}
