// Comando gbn-send envia um arquivo a um receiver Go-Back-N por UDP.
//
// Uso: gbn-send <server-host> <server-port> <file-path> <window-size> <mss>
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gbnftp/internal/config"
	"gbnftp/internal/logger"
	"gbnftp/internal/metrics"
	"gbnftp/internal/sender"
	"gbnftp/internal/stats"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Uso: gbn-send <server-host> <server-port> <file-path> <window-size> <mss>")
}

func main() {
	if len(os.Args) != 6 {
		usage()
		os.Exit(1)
	}

	host := os.Args[1]
	filePath := os.Args[3]

	port, err := config.ParsePort(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.ValidateHost(host); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	windowSize, err := strconv.Atoi(os.Args[4])
	if err != nil || config.ValidateWindowSize(windowSize) != nil {
		fmt.Fprintln(os.Stderr, "window-size inválido")
		os.Exit(1)
	}
	mss, err := strconv.Atoi(os.Args[5])
	if err != nil || config.ValidateMSS(mss) != nil {
		fmt.Fprintln(os.Stderr, "mss inválido")
		os.Exit(1)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "falha ao abrir arquivo: %v\n", err)
		os.Exit(1)
	}

	serverAddr := fmt.Sprintf("%s:%d", host, port)
	udpAddr, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "falha ao resolver endereço: %v\n", err)
		os.Exit(1)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "falha ao conectar: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	log := logger.NewDefault("sender")
	m := &metrics.SenderMetrics{}

	result, err := sender.RunTransfer(context.Background(), conn, data, uint32(windowSize), uint32(mss), config.RetransmitTimeout, log, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transferência falhou: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Transferência concluída: %d segmentos, %d bytes, %d timeouts, %.3fs\n",
		result.TotalSegments, result.FileSize, result.TimeoutCount, result.Elapsed.Seconds())

	rec := stats.Record{
		WindowSize:    windowSize,
		MSS:           mss,
		FileSize:      result.FileSize,
		TotalSegments: result.TotalSegments,
		ElapsedTime:   result.Elapsed.Seconds(),
		TimeoutCount:  result.TimeoutCount,
		Server:        serverAddr,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := stats.AppendRecord(config.DefaultStatsPath, rec); err != nil {
		log.Warn("falha ao registrar estatísticas: %v", err)
	}

	os.Exit(0)
}
