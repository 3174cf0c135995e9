package tcp

import (
	"bufio"
	"net"
	"time"

	"github.com/playroomlabs/gamehub-backend/internal/protocol"
)

// Writes that stall longer than this indicate a dead or hostile peer.
const writeTimeout = 10 * time.Second

// wire adapts a TCP connection to the server.Wire contract: one protocol
// line per message.
type wire struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newWire(conn net.Conn) *wire {
	return &wire{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, protocol.MaxLineSize),
	}
}

func (that *wire) ReadMessage() ([]byte, error) {
	return protocol.ReadLine(that.reader)
}

func (that *wire) WriteMessage(data []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	_, err := that.conn.Write(data)
	return err
}

func (that *wire) Close() error {
	return that.conn.Close()
}

func (that *wire) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}
