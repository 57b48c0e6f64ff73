package controllers

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/pion/webrtc/v4"
)

// VoiceSocketController runs SFU-style audio signaling for a canvas: each
// participant's RTP is forwarded to every other peer connection in the same
// canvas room.
type VoiceSocketController struct {
	peers     map[*websocket.Conn]*voicePeer
	rooms     map[string]map[*websocket.Conn]bool
	candidate map[*websocket.Conn][]webrtc.ICECandidateInit
	mu        sync.Mutex
}

type voicePeer struct {
	canvasID string
	pc       *webrtc.PeerConnection
	tracks   []*webrtc.TrackLocalStaticRTP
}

func NewVoiceSocketController() *VoiceSocketController {
	return &VoiceSocketController{
		peers:     make(map[*websocket.Conn]*voicePeer),
		rooms:     make(map[string]map[*websocket.Conn]bool),
		candidate: make(map[*websocket.Conn][]webrtc.ICECandidateInit),
	}
}

func (vc *VoiceSocketController) HandleVoice(c *websocket.Conn) {
	canvasID := c.Params("canvasId")

	defer func() {
		vc.mu.Lock()
		if peer, ok := vc.peers[c]; ok {
			peer.pc.Close()
			delete(vc.peers, c)
		}
		delete(vc.candidate, c)
		if room, ok := vc.rooms[canvasID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(vc.rooms, canvasID)
			}
		}
		vc.mu.Unlock()
		c.Close()
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(msg, &payload); err != nil {
			log.Println("Voice: error parsing message:", err)
			continue
		}

		switch payload["type"] {
		case "offer":
			vc.handleOffer(c, canvasID, payload)
		case "answer":
			vc.handleAnswer(c, payload)
		case "iceCandidate":
			vc.handleICECandidate(c, payload)
		default:
			log.Println("Voice: unknown message type:", payload["type"])
		}
	}
}

func (vc *VoiceSocketController) handleOffer(c *websocket.Conn, canvasID string, payload map[string]interface{}) {
	sdp, _ := payload["sdp"].(string)
	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}

	peerConnection, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	})
	if err != nil {
		log.Println("Voice: failed to create PeerConnection:", err)
		return
	}

	_, err = peerConnection.AddTransceiverFromKind(
		webrtc.RTPCodecTypeAudio,
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionSendrecv},
	)
	if err != nil {
		log.Println("Voice: AddTransceiverFromKind failed:", err)
	}

	// Adding a track later (a new participant speaking) triggers this; the
	// server re-offers so the client picks up the new media line.
	peerConnection.OnNegotiationNeeded(func() {
		vc.renegotiate(c, peerConnection)
	})

	peerConnection.OnTrack(func(remoteTrack *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		localTrack, err := webrtc.NewTrackLocalStaticRTP(
			remoteTrack.Codec().RTPCodecCapability,
			remoteTrack.ID(),
			remoteTrack.StreamID(),
		)
		if err != nil {
			log.Println("Voice: failed to create local track:", err)
			return
		}

		vc.mu.Lock()
		for otherConn := range vc.rooms[canvasID] {
			if otherConn == c {
				continue
			}
			other, ok := vc.peers[otherConn]
			if !ok {
				continue
			}
			if _, addErr := other.pc.AddTrack(localTrack); addErr != nil {
				log.Println("Voice: AddTrack error:", addErr)
			}
		}
		if peer, ok := vc.peers[c]; ok {
			peer.tracks = append(peer.tracks, localTrack)
		}
		vc.mu.Unlock()

		go func() {
			rtpBuf := make([]byte, 1400)
			for {
				n, _, readErr := remoteTrack.Read(rtpBuf)
				if readErr != nil {
					return
				}
				if _, writeErr := localTrack.Write(rtpBuf[:n]); writeErr != nil {
					return
				}
			}
		}()
	})

	vc.mu.Lock()
	vc.peers[c] = &voicePeer{canvasID: canvasID, pc: peerConnection}
	if vc.rooms[canvasID] == nil {
		vc.rooms[canvasID] = make(map[*websocket.Conn]bool)
	}
	vc.rooms[canvasID][c] = true
	vc.mu.Unlock()

	if err = peerConnection.SetRemoteDescription(offer); err != nil {
		log.Println("Voice: failed to set remote description:", err)
		return
	}
	answer, err := peerConnection.CreateAnswer(nil)
	if err != nil {
		log.Println("Voice: failed to create answer:", err)
		return
	}
	if err = peerConnection.SetLocalDescription(answer); err != nil {
		log.Println("Voice: failed to set local description:", err)
		return
	}

	response := map[string]interface{}{
		"type": "answer",
		"sdp":  answer.SDP,
	}
	resBytes, _ := json.Marshal(response)
	if err := c.WriteMessage(websocket.TextMessage, resBytes); err != nil {
		log.Println("Voice: WriteMessage error:", err)
	}

	// ICE candidates that arrived before the PeerConnection existed.
	vc.mu.Lock()
	queued := vc.candidate[c]
	delete(vc.candidate, c)
	vc.mu.Unlock()
	for _, cand := range queued {
		if err := peerConnection.AddICECandidate(cand); err != nil {
			log.Println("Voice: failed to add queued ICE candidate:", err)
		}
	}

	// Forward the tracks of everyone already in the room to the newcomer;
	// the AddTrack calls trigger renegotiation.
	vc.mu.Lock()
	for otherConn := range vc.rooms[canvasID] {
		if otherConn == c {
			continue
		}
		other, ok := vc.peers[otherConn]
		if !ok {
			continue
		}
		for _, lt := range other.tracks {
			if _, err := peerConnection.AddTrack(lt); err != nil {
				log.Println("Voice: AddTrack for existing track error:", err)
			}
		}
	}
	vc.mu.Unlock()
}

func (vc *VoiceSocketController) renegotiate(c *websocket.Conn, pc *webrtc.PeerConnection) {
	offer, err := pc.CreateOffer(nil)
	if err != nil {
		log.Println("Voice: renegotiate CreateOffer error:", err)
		return
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		log.Println("Voice: renegotiate SetLocalDescription error:", err)
		return
	}
	msg := map[string]interface{}{
		"type": "offer",
		"sdp":  offer.SDP,
	}
	data, _ := json.Marshal(msg)
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Println("Voice: renegotiate WriteMessage error:", err)
	}
}

func (vc *VoiceSocketController) handleAnswer(c *websocket.Conn, payload map[string]interface{}) {
	vc.mu.Lock()
	peer := vc.peers[c]
	vc.mu.Unlock()
	if peer == nil {
		log.Println("Voice: answer without a PeerConnection")
		return
	}

	sdp, _ := payload["sdp"].(string)
	answer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	}
	if err := peer.pc.SetRemoteDescription(answer); err != nil {
		log.Println("Voice: SetRemoteDescription error:", err)
	}
}

func (vc *VoiceSocketController) handleICECandidate(c *websocket.Conn, payload map[string]interface{}) {
	candidateMap, ok := payload["candidate"].(map[string]interface{})
	if !ok {
		log.Println("Voice: invalid candidate format")
		return
	}
	candidateStr, ok := candidateMap["candidate"].(string)
	if !ok {
		log.Println("Voice: invalid candidate format")
		return
	}
	candidate := webrtc.ICECandidateInit{Candidate: candidateStr}
	if mid, ok := candidateMap["sdpMid"].(string); ok {
		candidate.SDPMid = &mid
	}

	vc.mu.Lock()
	peer := vc.peers[c]
	if peer == nil {
		// PeerConnection not up yet; replay after the offer lands.
		vc.candidate[c] = append(vc.candidate[c], candidate)
		vc.mu.Unlock()
		return
	}
	vc.mu.Unlock()

	if err := peer.pc.AddICECandidate(candidate); err != nil {
		log.Println("Voice: AddICECandidate error:", err)
	}
}
