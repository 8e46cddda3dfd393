package gps

import (
	"bufio"
	"context"
	"fmt"
	"net"
)

// tcpConn is a line-oriented NMEA source over a plain TCP connection
// ('s "tcp" driver): connect to host:port, read NMEA lines,
// reconnect on close (handled by Driver's state machine).
type tcpConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func dialTCP(ctx context.Context, def Definition) (Conn, error) {
	host, ok := def.Options["host"]
	if !ok {
		return nil, fmt.Errorf("tcp gps definition requires host=")
	}
	port := def.Options["port"]
	if port == "" {
		port = "2947"
	}
	addr := net.JoinHostPort(host, port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial tcp gps %s: %w", addr, err)
	}
	return &tcpConn{conn: conn, scanner: bufio.NewScanner(conn)}, nil
}

func (c *tcpConn) ReadLine(ctx context.Context) (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("tcp gps: connection closed")
	}
	return c.scanner.Text(), nil
}

func (c *tcpConn) Close() error { return c.conn.Close() }
