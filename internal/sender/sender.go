// Package sender implementa o lado emissor do protocolo Go-Back-N: parte
// o payload em segmentos de tamanho MSS, mantém uma janela deslizante de
// segmentos em voo e reage a um único temporizador global de
// retransmissão, sem retransmissões seletivas e sem limite de tentativas.
package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"gbnftp/internal/logger"
	"gbnftp/internal/metrics"
	"gbnftp/internal/protocol"
)

// Conn é o subconjunto de *net.UDPConn que o laço de transferência precisa;
// isolado em uma interface para permitir exercitar o laço com um socket
// falso em memória nos testes, sem abrir portas reais.
type Conn interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
}

// maxAckFrame é o tamanho do buffer de leitura de confirmações; uma ACK
// válida tem exatamente protocol.HeaderSize bytes, mas o buffer é maior
// para tolerar datagramas malformados sem truncar silenciosamente um
// cabeçalho válido de tamanho inesperado.
const maxAckFrame = 64

// Result resume uma transferência concluída com sucesso.
type Result struct {
	TotalSegments int
	FileSize      int64
	TimeoutCount  int
	Elapsed       time.Duration
}

// segmentCount calcula quantos segmentos de até mss bytes cobrem n bytes.
func segmentCount(n int, mss uint32) uint32 {
	if n == 0 {
		return 0
	}
	return uint32((n + int(mss) - 1) / int(mss))
}

// segmentPayload retorna a fatia de data correspondente ao segmento seq.
func segmentPayload(data []byte, seq uint32, mss uint32) []byte {
	start := int(seq) * int(mss)
	end := start + int(mss)
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}

// RunTransfer executa o laço de envio completo sobre conn até que todos os
// segmentos tenham sido confirmados ou ocorra uma falha fatal de E/S.
// encerra imediatamente sem esperar nenhuma confirmação quando data está
// vazio, pois não há nada a confirmar.
func RunTransfer(ctx context.Context, conn Conn, data []byte, windowSize, mss uint32, timeout time.Duration, log logger.Logger, m *metrics.SenderMetrics) (Result, error) {
	start := time.Now()
	total := segmentCount(len(data), mss)
	w := newWindow(total, windowSize)

	var fatalErr error
	encode := func(seq uint32) []byte {
		return protocol.EncodeData(seq, segmentPayload(data, seq, mss))
	}
	send := func(seg []byte) {
		if fatalErr != nil {
			return
		}
		if _, err := conn.Write(seg); err != nil {
			fatalErr = fmt.Errorf("sender: falha ao enviar segmento: %w", err)
			return
		}
		m.AddSegmentSent(len(seg) - protocol.HeaderSize)
	}
	resend := func(seg []byte) {
		if fatalErr != nil {
			return
		}
		if _, err := conn.Write(seg); err != nil {
			fatalErr = fmt.Errorf("sender: falha ao retransmitir segmento: %w", err)
			return
		}
		m.AddRetransmission()
	}

	var timeoutCount int
	recvBuf := make([]byte, maxAckFrame)

	w.fill(encode, send)
	if fatalErr != nil {
		return Result{}, fatalErr
	}
	for !w.done() {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return Result{}, fmt.Errorf("sender: falha ao definir prazo de leitura: %w", err)
		}
		n, err := conn.Read(recvBuf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				timeoutCount++
				m.AddTimeout()
				log.Info("Timeout, sequence number = %d", w.base)
				w.retransmit(resend)
				if fatalErr != nil {
					return Result{}, fatalErr
				}
				continue
			}
			return Result{}, fmt.Errorf("sender: falha ao receber confirmação: %w", err)
		}

		h, _, derr := protocol.Decode(recvBuf[:n])
		if derr != nil || h.Type != protocol.TypeAck || h.Checksum != 0 {
			continue
		}
		m.AddAck()
		w.ack(h.Seq)
		w.fill(encode, send)
		if fatalErr != nil {
			return Result{}, fatalErr
		}
	}

	return Result{
		TotalSegments: int(total),
		FileSize:      int64(len(data)),
		TimeoutCount:  timeoutCount,
		Elapsed:       time.Since(start),
	}, nil
}
