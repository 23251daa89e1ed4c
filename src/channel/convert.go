package channel

import (
	"context"
	"fmt"

	"screenshot-plugin/src/messages"
	"screenshot-plugin/src/plugin"
)

// ResponseFromReply renders a handler reply as a response frame.
func ResponseFromReply(id string, reply plugin.Reply) messages.Response {
	resp := messages.Response{ID: id}
	switch reply.Kind {
	case plugin.ReplySuccess:
		raw, err := messages.MarshalResult(reply.Value)
		if err != nil {
			resp.Status = messages.StatusError
			resp.Error = &messages.ErrorBody{Code: plugin.CodeInternalError, Message: "Failed to encode result"}
			return resp
		}
		resp.Status = messages.StatusSuccess
		resp.Result = raw
	case plugin.ReplyError:
		resp.Status = messages.StatusError
		if reply.Err != nil {
			resp.Error = &messages.ErrorBody{Code: reply.Err.Code, Message: reply.Err.Message, Details: reply.Err.Details}
		}
	default:
		resp.Status = messages.StatusNotImplemented
	}
	return resp
}

// ReplyFromResponse turns a response frame back into the reply an
// in-process handler would have produced.
func ReplyFromResponse(resp messages.Response) (plugin.Reply, error) {
	switch resp.Status {
	case messages.StatusSuccess:
		res, err := resp.DecodeCaptureResult()
		if err != nil {
			return plugin.Reply{}, err
		}
		if res == nil {
			return plugin.Success(nil), nil
		}
		return plugin.Success(res.Map()), nil
	case messages.StatusError:
		if resp.Error == nil {
			return plugin.Failure(&plugin.Error{Code: plugin.CodeInternalError, Message: "error response without body"}), nil
		}
		return plugin.Failure(&plugin.Error{Code: resp.Error.Code, Message: resp.Error.Message, Details: resp.Error.Details}), nil
	case messages.StatusNotImplemented:
		return plugin.NotImplemented(), nil
	default:
		return plugin.Reply{}, fmt.Errorf("unknown response status %q", resp.Status)
	}
}

// Capture delegates a capture request to the resident.
func Capture(ctx context.Context, client Client, req plugin.CaptureRequest) (plugin.Reply, bool, error) {
	resp, delegated, err := client.Invoke(ctx, plugin.MethodCapture, req.Arguments())
	if err != nil || !delegated {
		return plugin.Reply{}, delegated, err
	}
	reply, err := ReplyFromResponse(resp)
	return reply, true, err
}
