package zvt

import (
	"github.com/holzweg/zvt/apdu"
	"github.com/holzweg/zvt/catalog"
	"github.com/holzweg/zvt/internal/observability"
	"github.com/holzweg/zvt/tlv"
)

// handlePackage runs on the link reader goroutine. Decode failures log and
// drop the package; the session timeout eventually covers a lost terminal
// reply.
func (c *Client) handlePackage(raw []byte) {
	pkg, err := apdu.Decode(raw)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping undecodable package")
		return
	}
	observability.RecordInbound(pkg.Control.String())
	c.touchSession()

	switch pkg.Control.Uint16() {
	case apdu.CtrlStatusInformation.Uint16():
		c.handleStatusInformation(pkg.Data)
	case apdu.CtrlIntermediateStatus.Uint16():
		c.handleIntermediateStatus(pkg.Data)
	case apdu.CtrlPrintLine.Uint16():
		c.handlePrintLine(pkg.Data)
	case apdu.CtrlPrintTextBlock.Uint16():
		c.handlePrintTextBlock(pkg.Data)
	case apdu.CtrlCompletion.Uint16():
		c.handleCompletion(pkg.Data)
	case apdu.CtrlAbort.Uint16():
		c.handleAbort(pkg.Data)
	default:
		c.log.Debug().Str("control_field", pkg.Control.String()).Msg("dropping unknown control field")
	}
}

func (c *Client) handleStatusInformation(data []byte) {
	si, err := parseStatusInformation(data, c.cfg.Encoding, c.cfg.Language)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed status information")
		return
	}
	c.statusHandlers.emit(si)
}

func (c *Client) handleIntermediateStatus(data []byte) {
	if len(data) == 0 {
		c.log.Warn().Msg("dropping empty intermediate status")
		return
	}
	code := data[0]
	msg := catalog.StatusText(code, c.cfg.Language)
	// A text TLV, when present, overrides the catalog message.
	if len(data) > 1 {
		if items, err := tlv.Parse(data[1:]); err == nil {
			if it, ok := tlv.Find(items, 0x07); ok && len(it.Value) > 0 {
				msg = c.cfg.Encoding.DecodeText(it.Value)
			}
		}
	}
	c.intermediateHandlers.emit(IntermediateStatus{Code: code, Message: msg})
}

func (c *Client) handlePrintLine(data []byte) {
	if len(data) == 0 {
		c.log.Warn().Msg("dropping empty print line")
		return
	}
	attr := data[0]
	c.lineHandlers.emit(PrintLine{
		Text:      c.cfg.Encoding.DecodeText(data[1:]),
		Attribute: attr,
		LastLine:  hasBit(attr, 7),
	})
}

func (c *Client) handlePrintTextBlock(data []byte) {
	if len(data) == 0 {
		c.log.Warn().Msg("dropping empty print text block")
		return
	}
	items, err := tlv.Parse(data[1:])
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping malformed print text block")
		return
	}
	receipt := Receipt{Type: data[0]}
	collectTextLines(items, &receipt.Lines, c.cfg.Encoding)
	c.receiptHandlers.emit(receipt)
}

// collectTextLines gathers tag 07 values depth-first so lines nested in a
// print-texts container keep their order.
func collectTextLines(items []tlv.Item, lines *[]string, enc Encoding) {
	for _, it := range items {
		if it.Tag == 0x07 {
			*lines = append(*lines, enc.DecodeText(it.Value))
			continue
		}
		if len(it.Items) > 0 {
			collectTextLines(it.Items, lines, enc)
		}
	}
}

// handleCompletion resolves the in-flight session. A non-empty payload is a
// status record and reaches subscribers before the session resolves.
func (c *Client) handleCompletion(data []byte) {
	if len(data) > 0 {
		c.handleStatusInformation(data)
	}
	c.resolveSession(Result{State: StateSuccessful})
}

func (c *Client) handleAbort(data []byte) {
	code := byte(0)
	if len(data) > 0 {
		code = data[0]
	}
	c.resolveSession(Result{
		State:   StateAbort,
		Message: catalog.ErrorText(code, c.cfg.Language),
	})
}
