package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddUserTurn(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		image     string
		wantAdded bool
		wantParts []Part
	}{
		{name: "text only", text: "hello", wantAdded: true, wantParts: []Part{TextPart("hello")}},
		{
			name:      "image only",
			image:     "data:image/png;base64,AAAA",
			wantAdded: true,
			wantParts: []Part{ImagePart("image/png", "AAAA")},
		},
		{
			name:      "text and image",
			text:      "what is this?",
			image:     "data:image/jpeg;base64,/9j/",
			wantAdded: true,
			wantParts: []Part{TextPart("what is this?"), ImagePart("image/jpeg", "/9j/")},
		},
		{name: "nothing", wantAdded: false},
		{name: "malformed image alone", image: "data:text/plain;base64,AAAA", wantAdded: false},
		{
			name:      "malformed image with text",
			text:      "hi",
			image:     "not-a-uri",
			wantAdded: true,
			wantParts: []Part{TextPart("hi")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			assert.Equal(t, tt.wantAdded, s.AddUserTurn(tt.text, tt.image))
			if !tt.wantAdded {
				assert.Zero(t, s.Len())
				return
			}
			turns := s.Turns()
			require.Len(t, turns, 1)
			assert.Equal(t, RoleUser, turns[0].Role)
			assert.Equal(t, tt.wantParts, turns[0].Parts)
		})
	}
}

func TestRetractLastUserTurn(t *testing.T) {
	s := NewSession()
	assert.False(t, s.RetractLastUserTurn(), "empty history")

	s.AddUserTurn("hello", "")
	s.AddModelTurn("Hi there")
	assert.False(t, s.RetractLastUserTurn(), "last turn is a model turn")
	assert.Equal(t, 2, s.Len())

	s.AddUserTurn("again", "")
	assert.True(t, s.RetractLastUserTurn())
	turns := s.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, RoleModel, turns[1].Role)
	assert.Equal(t, "Hi there", turns[1].Text())
}

func TestTurnsReturnsCopy(t *testing.T) {
	s := NewSession()
	s.AddUserTurn("hello", "")
	turns := s.Turns()
	turns[0].Role = RoleModel
	assert.Equal(t, RoleUser, s.Turns()[0].Role)
}

func TestTurnWireFormat(t *testing.T) {
	turn := Turn{Role: RoleUser, Parts: []Part{TextPart("look"), ImagePart("image/png", "AAAA")}}
	data, err := json.Marshal(turn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","parts":["look",{"inline_data":{"mime_type":"image/png","data":"AAAA"}}]}`, string(data))

	var decoded Turn
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, turn, decoded)
}

func TestPartUnmarshalRejectsUnknownObject(t *testing.T) {
	var p Part
	assert.Error(t, json.Unmarshal([]byte(`{"file_data":{}}`), &p))
}
