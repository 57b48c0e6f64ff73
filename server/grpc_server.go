package server

import (
	"log"
	"net"

	"google.golang.org/grpc"

	pb "pixelboard-server/pkg/keyrotation"
	"pixelboard-server/utils"
)

func RunGRPCServer(addr string, store *utils.PublicKeyStore) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s := grpc.NewServer()
	pb.RegisterKeyRotationNotifyServiceServer(s, NewKeyRotationNotifyServer(store))

	log.Println("Starting gRPC server on", addr)
	return s.Serve(lis)
}
